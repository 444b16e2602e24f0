package linker

import "testing"

func TestArchiveExcludedNoArchive(t *testing.T) {
	ctx := NewContext()
	if archiveExcluded(ctx, "") {
		t.Errorf("a file not pulled from an archive is never exclude_libs material")
	}
}

func TestArchiveExcludedAll(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.ExcludeLibsAll = true
	if !archiveExcluded(ctx, "/usr/lib/libfoo.a") {
		t.Errorf("exclude_libs=ALL should exclude every archive")
	}
}

func TestArchiveExcludedByStem(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.ExcludeLibs.Add("foo")
	if !archiveExcluded(ctx, "/usr/lib/libfoo.a") {
		t.Errorf("expected libfoo.a to match exclude_libs stem %q", "foo")
	}
	if archiveExcluded(ctx, "/usr/lib/libbar.a") {
		t.Errorf("libbar.a should not match an unrelated exclude_libs entry")
	}
}
