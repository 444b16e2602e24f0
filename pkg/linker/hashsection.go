package linker

import "debug/elf"

// HashSection is the SysV .hash table (DT_HASH), built when
// arg.hash_style_sysv is set. Bucket count follows the classic ELF
// gABI recommendation of one bucket per roughly-one-to-two symbols.
type HashSection struct {
	Chunk
}

func NewHashSection() *HashSection {
	h := &HashSection{Chunk: NewChunk()}
	h.Name = ".hash"
	h.Shdr.Type = uint32(elf.SHT_HASH)
	h.Shdr.Flags = uint64(elf.SHF_ALLOC)
	h.Shdr.AddrAlign = 8
	h.Shdr.EntSize = 4
	return h
}

func sysvHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = (h << 4) + uint32(name[i])
		if g := h & 0xf0000000; g != 0 {
			h ^= g >> 24
			h &^= g
		}
	}
	return h
}

func (h *HashSection) UpdateShdr(ctx *Context) {
	nsyms := uint32(len(ctx.Dynsym.Symbols))
	nbuckets := nsyms/2 + 1
	if nbuckets < 1 {
		nbuckets = 1
	}
	h.Shdr.Link = uint32(ctx.Dynsym.Shndx)
	h.Shdr.Size = uint64(2+nbuckets+nsyms) * 4
}

func (h *HashSection) CopyBuf(ctx *Context) {
	nsyms := uint32(len(ctx.Dynsym.Symbols))
	nbuckets := nsyms/2 + 1
	if nbuckets < 1 {
		nbuckets = 1
	}
	buf := ctx.Buf[h.Shdr.Offset:]
	putU32(buf[0:], nbuckets)
	putU32(buf[4:], nsyms)

	buckets := buf[8:]
	chains := buf[8+nbuckets*4:]
	for i, sym := range ctx.Dynsym.Symbols {
		if sym == nil {
			continue
		}
		b := sysvHash(ctx.Dynsym.RowName(i)) % nbuckets
		putU32(chains[uint32(i)*4:], leU32(buckets[b*4:]))
		putU32(buckets[b*4:], uint32(i))
	}
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
