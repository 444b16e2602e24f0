package linker

import (
	"debug/elf"
	"encoding/binary"
	"testing"
)

func makeElfHeader(et elf.Type) []byte {
	buf := make([]byte, 64)
	copy(buf[:4], elfMagic)
	binary.LittleEndian.PutUint16(buf[16:], uint16(et))
	binary.LittleEndian.PutUint16(buf[18:], uint16(elf.EM_X86_64))
	return buf
}

func TestGetFileTypeObject(t *testing.T) {
	if got := GetFileType(makeElfHeader(elf.ET_REL)); got != FileTypeObject {
		t.Errorf("GetFileType(ET_REL) = %d, want FileTypeObject", got)
	}
}

func TestGetFileTypeDso(t *testing.T) {
	if got := GetFileType(makeElfHeader(elf.ET_DYN)); got != FileTypeDso {
		t.Errorf("GetFileType(ET_DYN) = %d, want FileTypeDso", got)
	}
}

func TestGetFileTypeArchive(t *testing.T) {
	if got := GetFileType([]byte("!<arch>\n")); got != FileTypeAr {
		t.Errorf("GetFileType(archive magic) = %d, want FileTypeAr", got)
	}
	if got := GetFileType([]byte("!<thin>\n")); got != FileTypeThinAr {
		t.Errorf("GetFileType(thin archive magic) = %d, want FileTypeThinAr", got)
	}
}

func TestGetFileTypeEmpty(t *testing.T) {
	if got := GetFileType(nil); got != FileTypeEmpty {
		t.Errorf("GetFileType(nil) = %d, want FileTypeEmpty", got)
	}
}

func TestGetFileTypeText(t *testing.T) {
	if got := GetFileType([]byte("GROUP ( libc.a )")); got != FileTypeText {
		t.Errorf("GetFileType(text) = %d, want FileTypeText", got)
	}
}

func TestCheckMagic(t *testing.T) {
	if !CheckMagic(makeElfHeader(elf.ET_REL)) {
		t.Errorf("expected CheckMagic to accept a real ELF header")
	}
	if CheckMagic([]byte("notelf..")) {
		t.Errorf("expected CheckMagic to reject non-ELF bytes")
	}
	if CheckMagic([]byte{0x7f, 'E'}) {
		t.Errorf("expected CheckMagic to reject a truncated header")
	}
}

func TestDetectArch(t *testing.T) {
	a, ok := DetectArch(makeElfHeader(elf.ET_REL))
	if !ok || a.Name() != "x86_64" {
		t.Errorf("DetectArch: got %v,%v want x86_64,true", a, ok)
	}
}
