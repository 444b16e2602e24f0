package linker

import (
	"strings"

	"github.com/akawashiro/mold/pkg/utils"
)

func ReadInputFiles(ctx *Context, args []string) {
	for _, arg := range args {
		var ok bool
		if arg, ok = utils.RemovePrefix(arg, "-l"); ok {
			ReadFile(ctx, FindLibrary(ctx, arg))
		} else {
			ReadFile(ctx, MustNewFile(arg))
		}
	}

	if len(ctx.Objs) == 0 {
		utils.Fatal("no input files")
	}
}

func ReadFile(ctx *Context, file *File) {
	if ctx.Visited.Contains(file.Name) {
		return
	}

	ft := GetFileType(file.Contents)
	switch ft {
	case FileTypeObject:
		ctx.Objs = append(ctx.Objs, CreateObjectFile(ctx, file, ""))
	case FileTypeDso:
		ctx.Dsos = append(ctx.Dsos, NewSharedFile(ctx, file))
		ctx.Visited.Add(file.Name)
	case FileTypeThinAr, FileTypeAr:
		for _, child := range ReadArchiveMembers(file) {
			switch GetFileType(child.Contents) {
			case FileTypeObject:
				ctx.Objs = append(ctx.Objs, CreateObjectFile(ctx, child, file.Name))
			default:
				utils.Fatal("unknown file type")
			}
		}
		ctx.Visited.Add(file.Name)
	default:
		utils.Fatal("unknown file type")
	}
}

// archiveExcluded reports whether arg.exclude_libs names the archive a
// member was pulled from (or exclude_libs=ALL), the condition
// ComputeImportExport checks before re-exporting one of its
// definitions.
func archiveExcluded(ctx *Context, archiveName string) bool {
	if archiveName == "" {
		return false
	}
	if ctx.Arg.ExcludeLibsAll {
		return true
	}
	stem := archiveName
	if idx := strings.LastIndexByte(stem, '/'); idx != -1 {
		stem = stem[idx+1:]
	}
	stem = strings.TrimSuffix(stem, ".a")
	stem = strings.TrimPrefix(stem, "lib")
	return ctx.Arg.ExcludeLibs.Contains(stem)
}

func CreateObjectFile(ctx *Context, file *File, archiveName string) *ObjectFile {
	CheckFileCompatibility(ctx, file)

	inLib := len(archiveName) > 0
	obj := NewObjectFile(file, inLib)
	obj.Priority = uint32(ctx.FilePriority)
	ctx.FilePriority++
	obj.ArchiveName = archiveName
	obj.ExcludeLibs = archiveExcluded(ctx, archiveName)

	obj.parse(ctx)
	return obj
}
