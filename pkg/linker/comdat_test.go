package linker

import "testing"

func TestComdatGroupClaimLowestPriorityWins(t *testing.T) {
	g := &ComdatGroup{}
	a := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 20}}
	b := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 10}}

	// Claim in arrival order opposite of priority order: b (lower
	// priority) still ends up owning the group.
	g.Claim(a)
	g.Claim(b)
	if g.Owner != b {
		t.Fatalf("expected the lower-priority claimant to win ownership")
	}

	g.Claim(a)
	if g.Owner != b {
		t.Errorf("expected the existing lower-priority owner to keep winning")
	}
}

func TestGetComdatGroupInstanceInterned(t *testing.T) {
	ctx := NewContext()
	g1 := GetComdatGroupInstance(ctx, "sig")
	g2 := GetComdatGroupInstance(ctx, "sig")
	if g1 != g2 {
		t.Errorf("expected the same signature to return the same group instance")
	}
	g3 := GetComdatGroupInstance(ctx, "other")
	if g1 == g3 {
		t.Errorf("expected different signatures to return different group instances")
	}
}

func TestEliminateComdatsKillsLoser(t *testing.T) {
	ctx := NewContext()
	winner := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 1}}
	loser := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 2}}
	winner.SetAlive(true)
	loser.SetAlive(true)

	group := GetComdatGroupInstance(ctx, "sig")
	isecWinner := &InputSection{IsAlive: true}
	isecLoser := &InputSection{IsAlive: true}
	winner.Sections = []*InputSection{isecWinner}
	loser.Sections = []*InputSection{isecLoser}
	winner.ComdatGroups = []ComdatGroupRef{{Group: group, SectionIndices: []int64{0}}}
	loser.ComdatGroups = []ComdatGroupRef{{Group: group, SectionIndices: []int64{0}}}

	ctx.Objs = []*ObjectFile{winner, loser}

	EliminateComdats(ctx)

	if !isecWinner.IsAlive {
		t.Errorf("expected the group owner's member section to stay alive")
	}
	if isecLoser.IsAlive {
		t.Errorf("expected the losing file's member section to be killed")
	}
}
