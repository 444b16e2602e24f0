package linker

import "testing"

func TestComputeCetStatusAndsFeatures(t *testing.T) {
	ctx := NewContext()
	ctx.NoteProperty = NewNotePropertySection()

	a := &ObjectFile{Features: 0x3}
	b := &ObjectFile{Features: 0x1}
	a.SetAlive(true)
	b.SetAlive(true)
	ctx.Objs = []*ObjectFile{a, b}

	ComputeCetStatus(ctx)

	if ctx.NoteProperty.Features != 0x1 {
		t.Errorf("got Features=%#x, want the AND of every live object's bits (0x1)", ctx.NoteProperty.Features)
	}
}

func TestComputeCetStatusIgnoresDeadObjects(t *testing.T) {
	ctx := NewContext()
	ctx.NoteProperty = NewNotePropertySection()

	a := &ObjectFile{Features: 0x3}
	dead := &ObjectFile{Features: 0x0}
	a.SetAlive(true)
	dead.SetAlive(false)
	ctx.Objs = []*ObjectFile{a, dead}

	ComputeCetStatus(ctx)

	if ctx.NoteProperty.Features != 0x3 {
		t.Errorf("got Features=%#x, want 0x3 (dead object's bits must not count)", ctx.NoteProperty.Features)
	}
}

func TestComputeCetStatusReportsInconsistency(t *testing.T) {
	ctx := NewContext()
	ctx.NoteProperty = NewNotePropertySection()
	ctx.Arg.ZCetReport = CetReportError

	a := &ObjectFile{Features: 0x3}
	b := &ObjectFile{Features: 0x1}
	a.SetAlive(true)
	b.SetAlive(true)
	ctx.Objs = []*ObjectFile{a, b}

	ComputeCetStatus(ctx)

	if !ctx.Errors.HasErrors() {
		t.Errorf("expected an inconsistent GNU property mix under z_cet_report=error to record an error")
	}
}
