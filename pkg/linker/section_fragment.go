package linker

import (
	"math"
)

// SectionFragment is one deduplicated piece of a mergeable
// (SHF_MERGE) input section: a string or fixed-size constant that may
// be referenced by many relocations across many object files but is
// stored exactly once in the corresponding MergedSection.
type SectionFragment struct {
	OutputSection *MergedSection
	Offset        uint32
	P2Align       uint32
	IsAlive       bool
}

func NewSectionFragment(m *MergedSection) *SectionFragment {
	return &SectionFragment{OutputSection: m, Offset: math.MaxUint32}
}

func (f *SectionFragment) GetAddr() uint64 {
	return f.OutputSection.Shdr.Addr + uint64(f.Offset)
}
