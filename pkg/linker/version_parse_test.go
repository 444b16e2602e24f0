package linker

import "testing"

func TestParseSymbolVersionAssignsDefaultVersion(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Shared = true
	ctx.Arg.VersionDefinitions = []VersionDefinition{{Name: "VERS_1.0"}, {Name: "VERS_2.0"}}

	obj := &ObjectFile{}
	obj.SetAlive(true)
	sym := GetSymbolByName(ctx, "foo")
	sym.File = obj
	obj.Symbols = []*Symbol{sym}
	obj.SymVers = []string{"@@VERS_2.0"}

	ctx.Objs = []*ObjectFile{obj}

	ParseSymbolVersion(ctx)

	wantIdx := uint16(1) + VER_NDX_LAST_RESERVED + 1
	if sym.VerIdx != wantIdx {
		t.Errorf("got VerIdx=%d, want %d (VERS_2.0's table slot)", sym.VerIdx, wantIdx)
	}
}

func TestParseSymbolVersionHidesNonDefault(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Shared = true
	ctx.Arg.VersionDefinitions = []VersionDefinition{{Name: "VERS_1.0"}}

	obj := &ObjectFile{}
	obj.SetAlive(true)
	sym := GetSymbolByName(ctx, "bar")
	sym.File = obj
	obj.Symbols = []*Symbol{sym}
	obj.SymVers = []string{"@VERS_1.0"}

	ctx.Objs = []*ObjectFile{obj}

	ParseSymbolVersion(ctx)

	if sym.VerIdx&VERSYM_HIDDEN == 0 {
		t.Errorf("expected a non-default (\"@\", not \"@@\") version suffix to set VERSYM_HIDDEN")
	}
}

func TestParseSymbolVersionSkippedWhenNotShared(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Shared = false
	obj := &ObjectFile{}
	obj.SetAlive(true)
	sym := GetSymbolByName(ctx, "baz")
	sym.File = obj
	obj.Symbols = []*Symbol{sym}
	obj.SymVers = []string{"@@VERS_1.0"}
	ctx.Objs = []*ObjectFile{obj}

	ParseSymbolVersion(ctx)

	if sym.VerIdx != 0 {
		t.Errorf("expected ParseSymbolVersion to be a no-op when not linking a shared library")
	}
}
