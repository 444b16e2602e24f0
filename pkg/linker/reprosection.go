package linker

import (
	"archive/tar"
	"bytes"
	"debug/elf"
	"fmt"
)

// ReproSection backs --repro: a tar archive of every input file plus
// the command line that produced them, embedded as a non-allocated
// section so a bug report can be reproduced from the output binary
// alone. mold instead writes a sibling .tar file; bundling it in a
// debug-only section keeps it attached to the one artifact a bug
// reporter is likely to still have around.
type ReproSection struct {
	Chunk
	buf bytes.Buffer
}

func NewReproSection() *ReproSection {
	r := &ReproSection{Chunk: NewChunk()}
	r.Name = ".repro"
	r.Shdr.Type = uint32(elf.SHT_PROGBITS)
	r.Shdr.AddrAlign = 1
	return r
}

// Build archives the command line and the contents of every input
// file known to ctx (under files/<name>), skipping the internal file.
func (r *ReproSection) Build(ctx *Context, argv []string) error {
	tw := tar.NewWriter(&r.buf)

	manifest := fmt.Sprintf("argv: %v\n", argv)
	if err := tw.WriteHeader(&tar.Header{
		Name: "response.txt",
		Mode: 0644,
		Size: int64(len(manifest)),
	}); err != nil {
		return err
	}
	if _, err := tw.Write([]byte(manifest)); err != nil {
		return err
	}

	for _, obj := range ctx.Objs {
		if obj == ctx.InternalObj {
			continue
		}
		name := obj.InputName()
		if err := tw.WriteHeader(&tar.Header{
			Name: "files/" + name,
			Mode: 0644,
			Size: int64(len(obj.File.Contents)),
		}); err != nil {
			return err
		}
		if _, err := tw.Write(obj.File.Contents); err != nil {
			return err
		}
	}
	for _, dso := range ctx.Dsos {
		name := dso.InputName()
		if err := tw.WriteHeader(&tar.Header{
			Name: "files/" + name,
			Mode: 0644,
			Size: int64(len(dso.File.Contents)),
		}); err != nil {
			return err
		}
		if _, err := tw.Write(dso.File.Contents); err != nil {
			return err
		}
	}

	return tw.Close()
}

func (r *ReproSection) UpdateShdr(ctx *Context) {
	r.Shdr.Size = uint64(r.buf.Len())
}

func (r *ReproSection) CopyBuf(ctx *Context) {
	if r.Shdr.Size == 0 {
		return
	}
	copy(ctx.Buf[r.Shdr.Offset:], r.buf.Bytes())
}
