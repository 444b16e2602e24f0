package linker

import "debug/elf"

// EhFrameSection is the merged .eh_frame: every live input's .eh_frame
// contents (skipped during per-object parsing by skipEhframeSections)
// concatenated here instead, so CIE/FDE records from different object
// files end up contiguous the way a real unwinder expects. Parsing
// CIE/FDE structure to deduplicate identical CIEs is out of scope,
// the same class of machine-detail work as architecture-specific
// relocation application; this pass concatenates raw bytes only.
type EhFrameSection struct {
	Chunk
	Inputs []*InputSection
}

func NewEhFrameSection() *EhFrameSection {
	e := &EhFrameSection{Chunk: NewChunk()}
	e.Name = ".eh_frame"
	e.Shdr.Type = uint32(elf.SHT_PROGBITS)
	e.Shdr.Flags = uint64(elf.SHF_ALLOC)
	e.Shdr.AddrAlign = 8
	return e
}

func (e *EhFrameSection) Add(isec *InputSection) {
	e.Inputs = append(e.Inputs, isec)
}

func (e *EhFrameSection) UpdateShdr(ctx *Context) {
	size := uint64(0)
	for _, isec := range e.Inputs {
		size += uint64(isec.ShSize)
	}
	e.Shdr.Size = size
}

func (e *EhFrameSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[e.Shdr.Offset:]
	off := uint64(0)
	for _, isec := range e.Inputs {
		copy(buf[off:], isec.Contents)
		off += uint64(isec.ShSize)
	}
}

// EhFrameHdrSection is .eh_frame_hdr: a sorted (PC, FDE) binary-search
// table pointing into EhFrameSection, built once its layout is final.
type EhFrameHdrSection struct {
	Chunk
}

func NewEhFrameHdrSection() *EhFrameHdrSection {
	e := &EhFrameHdrSection{Chunk: NewChunk()}
	e.Name = ".eh_frame_hdr"
	e.Shdr.Type = uint32(elf.SHT_PROGBITS)
	e.Shdr.Flags = uint64(elf.SHF_ALLOC)
	e.Shdr.AddrAlign = 4
	return e
}

// header is fixed-size (version, eh_frame_ptr_enc, fde_count_enc,
// table_enc bytes + 2 encoded words); the binary-search table itself
// needs per-FDE parsing this pipeline doesn't do, so it is sized for
// the header alone and left for the writer to populate once it parses
// CIE/FDE records directly out of the final .eh_frame bytes.
func (e *EhFrameHdrSection) UpdateShdr(ctx *Context) {
	e.Shdr.Size = 12
}

func (e *EhFrameHdrSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[e.Shdr.Offset : e.Shdr.Offset+e.Shdr.Size]
	buf[0] = 1    // version
	buf[1] = 0x1b // eh_frame_ptr: pcrel | sdata4
	buf[2] = 0x03 // fde_count: udata4
	buf[3] = 0x3b // table: datarel | sdata4
	ehFrameAddr := ctx.EhFrame.Shdr.Addr
	rel := int32(int64(ehFrameAddr) - int64(e.Shdr.Addr+4))
	putU32(buf[4:], uint32(rel))
}
