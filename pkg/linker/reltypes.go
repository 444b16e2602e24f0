package linker

import "debug/elf"

// The functions below pick the dynamic relocation type a given GOT or
// COPYREL slot needs to be fixed up at load time, keyed on
// ctx.Arg.Emulation the same way relsection.go's jumpSlotRelType
// already does for .rela.plt's JUMP_SLOT entries.

func globDatRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_GLOB_DAT)
	case "arm64":
		return uint32(elf.R_AARCH64_GLOB_DAT)
	}
	return 0
}

func relativeRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_RELATIVE)
	case "arm64":
		return uint32(elf.R_AARCH64_RELATIVE)
	}
	return 0
}

func copyRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_COPY)
	case "arm64":
		return uint32(elf.R_AARCH64_COPY)
	}
	return 0
}

func tpoffRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_TPOFF64)
	case "arm64":
		return uint32(elf.R_AARCH64_TLS_TPREL64)
	}
	return 0
}

func dtpmodRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_DTPMOD64)
	case "arm64":
		return uint32(elf.R_AARCH64_TLS_DTPMOD64)
	}
	return 0
}

func dtpoffRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_DTPOFF64)
	case "arm64":
		return uint32(elf.R_AARCH64_TLS_DTPREL64)
	}
	return 0
}

func tlsdescRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_TLSDESC)
	case "arm64":
		return uint32(elf.R_AARCH64_TLSDESC)
	}
	return 0
}
