package linker

import (
	"debug/elf"
	"encoding/binary"

	"github.com/akawashiro/mold/pkg/linker/arch"
)

// DetectArch sniffs an ELF object/DSO's e_machine field and resolves
// it to the matching arch.Arch descriptor via arch.ByMachine.
func DetectArch(contents []byte) (arch.Arch, bool) {
	ft := GetFileType(contents)
	switch ft {
	case FileTypeObject, FileTypeDso:
		machine := elf.Machine(binary.LittleEndian.Uint16(contents[18:]))
		return arch.ByMachine(machine)
	}
	return nil, false
}
