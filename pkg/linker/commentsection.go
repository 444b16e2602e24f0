package linker

import "debug/elf"

// CommentSection is .comment, a null-separated list of producer
// identification strings. It starts with this linker's own
// identification string (linkerIdent); AddString appends further
// distinct strings, and nothing in the pipeline copies input objects'
// own .comment contents into it.
type CommentSection struct {
	Chunk
	strs []string
}

const linkerIdent = "mold-student 0.1"

func NewCommentSection() *CommentSection {
	c := &CommentSection{Chunk: NewChunk()}
	c.Name = ".comment"
	c.Shdr.Type = uint32(elf.SHT_PROGBITS)
	c.Shdr.Flags = uint64(elf.SHF_MERGE | elf.SHF_STRINGS)
	c.Shdr.AddrAlign = 1
	c.Shdr.EntSize = 1
	c.strs = []string{linkerIdent}
	return c
}

func (c *CommentSection) AddString(s string) {
	for _, existing := range c.strs {
		if existing == s {
			return
		}
	}
	c.strs = append(c.strs, s)
}

func (c *CommentSection) UpdateShdr(ctx *Context) {
	var size uint64
	for _, s := range c.strs {
		size += uint64(len(s)) + 1
	}
	c.Shdr.Size = size
}

func (c *CommentSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[c.Shdr.Offset:]
	off := 0
	for _, s := range c.strs {
		copy(buf[off:], s)
		off += len(s) + 1
	}
}
