package linker

import (
	"debug/elf"
	"fmt"

	"github.com/akawashiro/mold/pkg/utils"
)

// NotePropertySection is the output .note.gnu.property, the merge of
// every input object's GNU property note (ObjectFile.Features). When
// every input agrees on IBT/SHSTK support the merged word is their
// bitwise AND, matching the x86 psABI rule that a feature is only
// safe to advertise for the whole binary if every component supports
// it; arg.z_cet_report controls what ComputeCetStatus does when they
// disagree.
type NotePropertySection struct {
	Chunk
	Features uint32
}

func NewNotePropertySection() *NotePropertySection {
	n := &NotePropertySection{Chunk: NewChunk()}
	n.Name = ".note.gnu.property"
	n.Shdr.Type = uint32(elf.SHT_NOTE)
	n.Shdr.Flags = uint64(elf.SHF_ALLOC)
	n.Shdr.AddrAlign = 8
	return n
}

// ComputeCetStatus ANDs every live object's feature bitset together
// and, per arg.z_cet_report, warns or errors when an object lacking a
// feature bit is mixed with one that has it, an inconsistency the
// dynamic loader would otherwise silently downgrade.
func ComputeCetStatus(ctx *Context) {
	if len(ctx.Objs) == 0 {
		return
	}
	all := ^uint32(0)
	any := uint32(0)
	for _, o := range ctx.Objs {
		if !o.Alive() {
			continue
		}
		all &= o.Features
		any |= o.Features
	}

	if ctx.Arg.ZCetReport != CetReportNone && all != any {
		missing := any &^ all
		msg := "inconsistent GNU property flags across input files"
		if ctx.Arg.ZCetReport == CetReportError {
			ctx.Errors.Addf("%s (missing bits: %#x)", msg, missing)
		} else {
			utils.Warn(fmt.Sprintf("%s (missing bits: %#x)", msg, missing))
		}
	}

	ctx.NoteProperty.Features = all
}

func (n *NotePropertySection) UpdateShdr(ctx *Context) {
	if n.Features == 0 {
		n.Shdr.Size = 0
		return
	}
	n.Shdr.Size = 32
}

func (n *NotePropertySection) CopyBuf(ctx *Context) {
	if n.Shdr.Size == 0 {
		return
	}
	buf := ctx.Buf[n.Shdr.Offset:]
	putU32(buf[0:], 4) // namesz
	putU32(buf[4:], 16)
	putU32(buf[8:], 5) // NT_GNU_PROPERTY_TYPE_0
	copy(buf[12:], "GNU\x00")
	putU32(buf[16:], 0xc0000002) // GNU_PROPERTY_X86_FEATURE_1_AND
	putU32(buf[20:], 4)
	putU32(buf[24:], n.Features)
	putU32(buf[28:], 0)
}
