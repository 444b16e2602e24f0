package linker

import (
	"sync"

	"github.com/akawashiro/mold/pkg/linker/parallel"
	"github.com/akawashiro/mold/pkg/utils"
)

// ComdatGroup is the interned owner of one COMDAT signature. Every object file defining
// the same signature contends for ownership; the lowest-(priority,index)
// file wins regardless of the order the contenders happen to run in,
// so the outcome is the same under any amount of parallelism. This
// mirrors the way GetMergedSectionInstance/GetSymbolByName intern by
// name, generalized to carry a ranked owner instead of content.
type ComdatGroup struct {
	mu       sync.Mutex
	Owner    *ObjectFile
	ownerKey int64
}

// GetComdatGroupInstance interns the group by signature name, creating
// it on first sight.
func GetComdatGroupInstance(ctx *Context, signature string) *ComdatGroup {
	ctx.comdatMu.Lock()
	defer ctx.comdatMu.Unlock()
	if g, ok := ctx.ComdatGroups[signature]; ok {
		return g
	}
	g := &ComdatGroup{}
	ctx.ComdatGroups[signature] = g
	return g
}

// Claim contends for the group on file's behalf, keeping whichever
// contender has the lowest priority seen so far. Safe to call
// concurrently from every file sharing this signature, in any order;
// the lowest-priority file always ends up as Owner once every
// contender has called Claim.
func (g *ComdatGroup) Claim(file *ObjectFile) {
	key := int64(file.Priority)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Owner == nil || key < g.ownerKey {
		g.Owner = file
		g.ownerKey = key
	}
}

// EliminateComdats walks every live object's parsed COMDAT group
// sections and kills the member sections of every group this file did
// not win ownership of. Phase A (Claim) and phase B (kill the losers)
// are each embarrassingly parallel across files, with a barrier
// between them so every contender has registered before any file acts
// on the final ownership decision.
func EliminateComdats(ctx *Context) {
	claim := func(file *ObjectFile) error {
		for _, g := range file.ComdatGroups {
			g.Group.Claim(file)
		}
		return nil
	}
	utils.MustNo(parallel.ForEach(ctx.Objs, claim))

	kill := func(file *ObjectFile) error {
		for _, g := range file.ComdatGroups {
			if g.Group.Owner == file {
				continue
			}
			for _, idx := range g.SectionIndices {
				if idx < int64(len(file.Sections)) && file.Sections[idx] != nil {
					file.Sections[idx].IsAlive = false
				}
			}
		}
		return nil
	}
	utils.MustNo(parallel.ForEach(ctx.Objs, kill))
}
