package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akawashiro/mold/pkg/linker"
	"github.com/akawashiro/mold/pkg/linker/arch"
	"github.com/akawashiro/mold/pkg/utils"
)

var version string

// checkpoint is an explicit error-flush boundary: ResolveSymbols plus
// CheckDuplicateSymbols, ClaimUnresolvedSymbols, and ScanRels each batch
// their diagnostics into ctx.Errors rather than failing on the first
// one, and checkpoint is where accumulated errors actually abort the
// link, reporting every one of them at once.
func checkpoint(ctx *linker.Context) {
	if !ctx.Errors.HasErrors() {
		return
	}
	for _, e := range ctx.Errors.Messages() {
		fmt.Fprintln(os.Stderr, e)
	}
	os.Exit(1)
}

func main() {
	ctx := linker.NewContext()
	remaining := parseNonpositionalArgs(ctx)

	if ctx.Arg.Emulation == nil {
		for _, filename := range remaining {
			if strings.HasPrefix(filename, "-") {
				continue
			}
			file := linker.MustNewFile(filename)
			if a, ok := linker.DetectArch(file.Contents); ok {
				ctx.Arg.Emulation = a
				break
			}
		}
	}

	if ctx.Arg.Emulation == nil {
		utils.Fatal("unknown emulation type")
	}

	linker.ReadInputFiles(ctx, remaining)
	linker.CreateInternalFile(ctx)
	linker.ResolveSymbols(ctx)
	linker.CheckDuplicateSymbols(ctx)
	checkpoint(ctx)
	linker.EliminateComdats(ctx)
	linker.ConvertCommonSymbols(ctx)
	linker.RegisterSectionPieces(ctx)
	linker.ComputeImportExport(ctx)
	linker.ComputeMergedSectionSizes(ctx)
	linker.CreateSyntheticSections(ctx)
	linker.BinSections(ctx)
	linker.SortInitFini(ctx)
	ctx.Chunks = append(ctx.Chunks, linker.CollectOutputSections(ctx)...)
	linker.AddSyntheticSymbols(ctx)
	linker.ClaimUnresolvedSymbols(ctx)
	checkpoint(ctx)
	linker.ApplyVersionScript(ctx)
	linker.ParseSymbolVersion(ctx)
	linker.ComputeCetStatus(ctx)
	linker.ScanRels(ctx)
	checkpoint(ctx)

	if ctx.Repro != nil {
		utils.MustNo(ctx.Repro.Build(ctx, os.Args))
	}

	if ctx.Dynsym != nil {
		ctx.Dynsym.Finalize(ctx)
	}
	if ctx.Dynamic != nil {
		sonames := make([]string, 0, len(ctx.Dsos))
		for _, dso := range ctx.Dsos {
			if dso.Alive() {
				sonames = append(sonames, dso.Soname)
			}
		}
		ctx.Dynamic.BuildEntries(ctx, sonames)
	}

	linker.ComputeSectionSizes(ctx)
	linker.CompressDebugSections(ctx)
	linker.SortOutputSections(ctx)

	for _, chunk := range ctx.Chunks {
		chunk.UpdateShdr(ctx)
	}

	ctx.Chunks = utils.RemoveIf[linker.Chunker](ctx.Chunks, func(chunk linker.Chunker) bool {
		return chunk.Kind() != linker.ChunkKindOutputSection && chunk.GetShdr().Size == 0
	})

	shndx := int64(1)
	for i := 0; i < len(ctx.Chunks); i++ {
		if ctx.Chunks[i].Kind() != linker.ChunkKindHeader {
			ctx.Chunks[i].SetShndx(shndx)
			shndx++
		}
	}

	for _, chunk := range ctx.Chunks {
		chunk.GetShdr().Name = ctx.Shstrtab.Add(chunk.GetName())
	}

	for _, chunk := range ctx.Chunks {
		chunk.UpdateShdr(ctx)
	}

	linker.SetOsecOffsets(ctx)
	fileSize := linker.ResizeSections(ctx)
	linker.FixSyntheticSymbols(ctx)
	linker.ClearPadding(ctx)

	ctx.Buf = make([]byte, fileSize)
	checkpoint(ctx)

	file, err := os.OpenFile(ctx.Arg.Output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0777)
	utils.MustNo(err)

	for _, chunk := range ctx.Chunks {
		chunk.CopyBuf(ctx)
	}

	_, err = file.Write(ctx.Buf)
	utils.MustNo(err)
}

func parseNonpositionalArgs(ctx *linker.Context) []string {
	dashes := func(name string) []string {
		if len(name) == 1 {
			return []string{"-" + name}
		}
		if name[0] == 'o' {
			return []string{"--" + name}
		}
		return []string{"-" + name, "--" + name}
	}

	args := os.Args[1:]
	remaining := make([]string, 0)
	var arg string

	readArg := func(name string) bool {
		for _, opt := range dashes(name) {
			if args[0] == opt {
				if len(args) == 1 {
					utils.Fatal(fmt.Sprintf("option -%s: argument missing", name))
					return false
				}
				arg = args[1]
				args = args[2:]
				return true
			}

			prefix := opt
			if len(name) > 1 {
				prefix += "="
			}

			if strings.HasPrefix(args[0], prefix) {
				arg = args[0][len(prefix):]
				args = args[1:]
				return true
			}
		}
		return false
	}

	readFlag := func(name string) bool {
		for _, opt := range dashes(name) {
			if args[0] == opt {
				args = args[1:]
				return true
			}
		}
		return false
	}

	for len(args) > 0 {
		if readFlag("help") {
			fmt.Printf("Usage: %s [options] file...\n", os.Args[0])
			os.Exit(0)
		}

		if readArg("o") || readArg("output") {
			ctx.Arg.Output = arg
		} else if readFlag("v") || readFlag("version") {
			fmt.Printf("mold-student %s\n", version)
			os.Exit(0)
		} else if readArg("m") {
			switch arg {
			case "elf_x86_64":
				ctx.Arg.Emulation = arch.X86_64
			case "aarch64elf", "aarch64linux":
				ctx.Arg.Emulation = arch.ARM64
			default:
				utils.Fatal(fmt.Sprintf("unknown -m argument: %s", arg))
			}
		} else if readArg("sysroot") {
			// Ignored
		} else if readArg("L") || readArg("library-path") {
			ctx.Arg.LibraryPaths = append(ctx.Arg.LibraryPaths, arg)
		} else if readArg("l") {
			remaining = append(remaining, "-l"+arg)
		} else if readFlag("static") {
			// Do nothing.
		} else if readFlag("shared") || readFlag("Bshareable") {
			ctx.Arg.Shared = true
			ctx.Arg.Pic = true
		} else if readArg("soname") || readArg("h") {
			ctx.Arg.Soname = arg
		} else if readArg("dynamic-linker") {
			ctx.Arg.DynamicLinker = arg
		} else if readFlag("no-dynamic-linker") {
			ctx.Arg.DynamicLinker = ""
		} else if readFlag("Bsymbolic") {
			ctx.Arg.Bsymbolic = true
		} else if readFlag("Bsymbolic-functions") {
			ctx.Arg.BsymbolicFunctions = true
		} else if readFlag("pie") {
			ctx.Arg.Pic = true
		} else if readArg("exclude-libs") {
			if arg == "ALL" {
				ctx.Arg.ExcludeLibsAll = true
			} else {
				for _, lib := range strings.Split(arg, ",") {
					ctx.Arg.ExcludeLibs.Add(lib)
				}
			}
		} else if readArg("u") || readArg("undefined") {
			ctx.Arg.Undefined = append(ctx.Arg.Undefined, arg)
		} else if readArg("require-defined") {
			ctx.Arg.RequireDefined = append(ctx.Arg.RequireDefined, arg)
		} else if readArg("defsym") {
			name, val, ok := strings.Cut(arg, "=")
			if !ok {
				utils.Fatal(fmt.Sprintf("invalid -defsym: %s", arg))
			}
			d := linker.Defsym{Name: name}
			if n, err := strconv.ParseUint(val, 0, 64); err == nil {
				d.IsNumeric = true
				d.Value = n
			} else {
				d.SymName = val
			}
			ctx.Arg.Defsyms = append(ctx.Arg.Defsyms, d)
		} else if readArg("entry") || readArg("e") {
			ctx.Arg.Entry = arg
		} else if readArg("hash-style") {
			switch arg {
			case "sysv":
				ctx.Arg.HashStyleSysv = true
			case "gnu":
				ctx.Arg.HashStyleGnu = true
			case "both":
				ctx.Arg.HashStyleSysv = true
				ctx.Arg.HashStyleGnu = true
			}
		} else if readFlag("eh-frame-hdr") {
			ctx.Arg.EhFrameHdr = true
		} else if readFlag("no-eh-frame-hdr") {
			ctx.Arg.EhFrameHdr = false
		} else if readFlag("build-id") {
			ctx.Arg.BuildIdKind = linker.BuildIdFast
		} else if readArg("build-id") {
			switch arg {
			case "none":
				ctx.Arg.BuildIdKind = linker.BuildIdNone
			case "md5":
				ctx.Arg.BuildIdKind = linker.BuildIdMd5
			case "sha1":
				ctx.Arg.BuildIdKind = linker.BuildIdSha1
			case "sha256":
				ctx.Arg.BuildIdKind = linker.BuildIdSha256
			case "uuid":
				ctx.Arg.BuildIdKind = linker.BuildIdUuid
			default:
				ctx.Arg.BuildIdKind = linker.BuildIdFast
			}
		} else if readFlag("repro") {
			ctx.Arg.Repro = true
		} else if readFlag("gc-sections") {
			ctx.Arg.GcSections = true
		} else if readFlag("no-gc-sections") {
			ctx.Arg.GcSections = false
		} else if readArg("compress-debug-sections") {
			switch arg {
			case "zlib", "zlib-gabi":
				ctx.Arg.CompressDebugSections = linker.CompressGabi
			case "zlib-gnu":
				ctx.Arg.CompressDebugSections = linker.CompressGnu
			default:
				ctx.Arg.CompressDebugSections = linker.CompressNone
			}
		} else if readArg("unresolved-symbols") {
			switch arg {
			case "ignore-all", "ignore-in-object-files", "ignore-in-shared-libs":
				ctx.Arg.UnresolvedSymbols = linker.UnresolvedIgnore
			case "report-all":
				ctx.Arg.UnresolvedSymbols = linker.UnresolvedError
			default:
				utils.Fatal(fmt.Sprintf("unknown --unresolved-symbols argument: %s", arg))
			}
		} else if readFlag("warn-unresolved-symbols") {
			ctx.Arg.UnresolvedSymbols = linker.UnresolvedWarn
		} else if readFlag("error-unresolved-symbols") {
			ctx.Arg.UnresolvedSymbols = linker.UnresolvedError
		} else if readArg("z") {
			switch arg {
			case "cet-report=warning":
				ctx.Arg.ZCetReport = linker.CetReportWarning
			case "cet-report=error":
				ctx.Arg.ZCetReport = linker.CetReportError
			}
		} else if readArg("image-base") {
			n, err := strconv.ParseUint(arg, 0, 64)
			utils.MustNo(err)
			ctx.Arg.ImageBase = n
		} else if readArg("plugin") ||
			readArg("plugin-opt") ||
			readFlag("as-needed") ||
			readFlag("no-as-needed") ||
			readFlag("start-group") ||
			readFlag("end-group") ||
			readFlag("s") ||
			readFlag("no-relax") {
			// Ignored
		} else {
			if args[0][0] == '-' {
				utils.Fatal(fmt.Sprintf("unknown command line option: %s", args[0]))
			}
			remaining = append(remaining, args[0])
			args = args[1:]
		}
	}

	for i, path := range ctx.Arg.LibraryPaths {
		ctx.Arg.LibraryPaths[i] = filepath.Clean(path)
	}

	return remaining
}
