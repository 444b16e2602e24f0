package linker

import "testing"

func TestGlobToRegexLiteral(t *testing.T) {
	re := compileGroup([]string{"foo"})
	if !re.MatchString("foo") {
		t.Errorf("expected literal glob to match itself")
	}
	if re.MatchString("foobar") {
		t.Errorf("literal glob must anchor at both ends")
	}
}

func TestGlobToRegexStar(t *testing.T) {
	re := compileGroup([]string{"foo*"})
	for _, s := range []string{"foo", "foobar", "foo_baz"} {
		if !re.MatchString(s) {
			t.Errorf("expected %q to match foo*", s)
		}
	}
	if re.MatchString("barfoo") {
		t.Errorf("foo* must not match barfoo")
	}
}

func TestGlobToRegexCharClass(t *testing.T) {
	re := compileGroup([]string{"sym[12]"})
	if !re.MatchString("sym1") || !re.MatchString("sym2") {
		t.Errorf("expected sym[12] to match sym1 and sym2")
	}
	if re.MatchString("sym3") {
		t.Errorf("sym[12] must not match sym3")
	}
}

func TestCompileGroupEmpty(t *testing.T) {
	if compileGroup(nil) != nil {
		t.Errorf("compileGroup(nil) should return nil")
	}
}

func TestApplyVersionScriptOverridesInOrder(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Emulation = nil
	sym := GetSymbolByName(ctx, "foo_bar")
	obj := &ObjectFile{}
	obj.SetAlive(true)
	sym.File = obj

	ctx.Objs = append(ctx.Objs, obj)
	obj.Symbols = []*Symbol{sym}
	obj.ElfSyms = []Sym{{}}

	ctx.Arg.VersionPatterns = []VersionPatternGroup{
		{VerNdx: 5, Globs: []string{"foo_*"}},
		{VerNdx: 7, Literals: []string{"foo_bar"}},
	}

	ApplyVersionScript(ctx)

	if sym.VerIdx != 7 {
		t.Errorf("expected later group to override earlier one: got VerIdx=%d, want 7", sym.VerIdx)
	}
}
