package linker

import (
	"debug/elf"

	"github.com/akawashiro/mold/pkg/utils"
)

// BuildIdSection is .note.gnu.build-id. The note's size must be known
// up front to lay out the file, but the checksum itself (a hash of the
// final output bytes, for Fast/Md5/Sha1/Sha256, or a random UUID)
// can only be computed once every other byte has been written. The
// writer fills HashSize bytes of descriptor in a second pass over the
// already-laid-out buffer, matching how mold defers the build-id
// digest to the very end of the link.
type BuildIdSection struct {
	Chunk
	BuildIdKindValue BuildIdKind
	HashSize         int
}

func NewBuildIdSection(kind BuildIdKind) *BuildIdSection {
	b := &BuildIdSection{Chunk: NewChunk(), BuildIdKindValue: kind}
	b.Name = ".note.gnu.build-id"
	b.Shdr.Type = uint32(elf.SHT_NOTE)
	b.Shdr.Flags = uint64(elf.SHF_ALLOC)
	b.Shdr.AddrAlign = 4
	b.HashSize = hashSizeFor(kind)
	return b
}

func hashSizeFor(kind BuildIdKind) int {
	switch kind {
	case BuildIdMd5, BuildIdUuid:
		return 16
	case BuildIdSha1, BuildIdFast:
		return 20
	case BuildIdSha256:
		return 32
	}
	return 0
}

const noteNameSize = 4 // "GNU\0"

func (b *BuildIdSection) UpdateShdr(ctx *Context) {
	if b.HashSize == 0 {
		b.Shdr.Size = 0
		return
	}
	b.Shdr.Size = 12 + utils.AlignTo(uint64(noteNameSize), 4) + utils.AlignTo(uint64(b.HashSize), 4)
}

func (b *BuildIdSection) CopyBuf(ctx *Context) {
	if b.Shdr.Size == 0 {
		return
	}
	buf := ctx.Buf[b.Shdr.Offset:]
	putU32(buf[0:], noteNameSize)
	putU32(buf[4:], uint32(b.HashSize))
	putU32(buf[8:], 3) // NT_GNU_BUILD_ID
	copy(buf[12:], "GNU\x00")
	// The digest bytes themselves are zero until the writer's final
	// pass hashes the completed output; this pass only reserves space.
}
