package linker

import "debug/elf"

// GnuHashSection is .gnu.hash (DT_GNU_HASH), the modern Bloom-filter
// hash table built when arg.hash_style_gnu is set. Only symbols
// exported from .dynsym after the last local one participate. The
// .dynsym rows are taken in the order they were added; nothing sorts
// them by hash bucket.
type GnuHashSection struct {
	Chunk
	symOffset uint32
}

const gnuHashBloomShift = 26

func NewGnuHashSection() *GnuHashSection {
	g := &GnuHashSection{Chunk: NewChunk()}
	g.Name = ".gnu.hash"
	g.Shdr.Type = uint32(elf.SHT_GNU_HASH)
	g.Shdr.Flags = uint64(elf.SHF_ALLOC)
	g.Shdr.AddrAlign = 8
	return g
}

func gnuHash(name string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 + uint32(name[i])
	}
	return h
}

func (g *GnuHashSection) numBuckets(nsyms uint32) uint32 {
	if nsyms == 0 {
		return 1
	}
	return nsyms
}

func (g *GnuHashSection) UpdateShdr(ctx *Context) {
	nsyms := uint32(len(ctx.Dynsym.Symbols))
	if nsyms <= 1 {
		g.Shdr.Size = 0
		return
	}
	g.symOffset = 1
	nExported := nsyms - g.symOffset
	nbuckets := g.numBuckets(nExported)
	g.Shdr.Link = uint32(ctx.Dynsym.Shndx)
	// header(16) + one bloom word(8) + buckets(4 each) + chain(4 each)
	g.Shdr.Size = 16 + 8 + uint64(nbuckets)*4 + uint64(nExported)*4
}

func (g *GnuHashSection) CopyBuf(ctx *Context) {
	if g.Shdr.Size == 0 {
		return
	}
	nsyms := uint32(len(ctx.Dynsym.Symbols))
	nExported := nsyms - g.symOffset
	nbuckets := g.numBuckets(nExported)

	buf := ctx.Buf[g.Shdr.Offset:]
	putU32(buf[0:], nbuckets)
	putU32(buf[4:], g.symOffset)
	putU32(buf[8:], 1) // bloom_size
	putU32(buf[12:], gnuHashBloomShift)

	bloom := buf[16:]
	buckets := bloom[8:]
	chains := buckets[nbuckets*4:]

	bloomWord := uint64(0)
	for i := g.symOffset; i < nsyms; i++ {
		if ctx.Dynsym.Symbols[i] == nil {
			continue
		}
		h := gnuHash(ctx.Dynsym.RowName(int(i)))
		bloomWord |= 1 << (h % 64)
		bloomWord |= 1 << ((h >> gnuHashBloomShift) % 64)
	}
	putU64(bloom, bloomWord)

	for i := g.symOffset; i < nsyms; i++ {
		name := ""
		if ctx.Dynsym.Symbols[i] != nil {
			name = ctx.Dynsym.RowName(int(i))
		}
		h := gnuHash(name)
		b := h % nbuckets
		if leU32(buckets[b*4:]) == 0 {
			putU32(buckets[b*4:], i)
		}
		chainVal := h &^ 1
		if i == nsyms-1 {
			chainVal |= 1
		}
		putU32(chains[(i-g.symOffset)*4:], chainVal)
	}
}
