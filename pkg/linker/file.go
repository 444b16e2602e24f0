package linker

import (
	"github.com/akawashiro/mold/pkg/utils"
	"os"
)

type File struct {
	Name     string
	Contents []byte

	Parent *File
}

func MustNewFile(filename string) *File {
	contents, err := os.ReadFile(filename)
	utils.MustNo(err)
	return &File{
		Name:     filename,
		Contents: contents,
	}
}

func OpenLibrary(path string) *File {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return &File{Name: path, Contents: contents}
}

func FindLibrary(ctx *Context, name string) *File {
	for _, dir := range ctx.Arg.LibraryPaths {
		stem := dir + "/lib" + name
		if f := OpenLibrary(stem + ".a"); f != nil {
			return f
		}
		if f := OpenLibrary(stem + ".so"); f != nil {
			return f
		}
	}

	utils.Fatal("library not found: " + name)
	return nil
}
