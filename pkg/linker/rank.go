package linker

import "debug/elf"

// Rank buckets, lowest wins: a strong definition in a directly linked
// object beats a weak one, either beats one pulled lazily out of an
// archive, any of those beat a tentative (common) definition, and a
// DSO's definition is weakest of all, since a real definition
// anywhere in the objects being linked always takes precedence over
// one merely imported from a shared library.
const dsoRankBucket = 7

func GetRank(file *ObjectFile, esym *Sym, isLazy bool) uint64 {
	if esym.IsCommon() {
		if isLazy {
			return (6 << 24) + uint64(file.Priority)
		}

		return (5 << 24) + uint64(file.Priority)
	}

	isWeak := esym.Bind() == uint8(elf.STB_WEAK)
	if isLazy {
		if isWeak {
			return (4 << 24) + uint64(file.Priority)
		}
		return (3 << 24) + uint64(file.Priority)
	}
	if isWeak {
		return (2 << 24) + uint64(file.Priority)
	}
	return (1 << 24) + uint64(file.Priority)
}

// GetDsoRank returns the rank a shared object's own definition
// competes at: always in the weakest bucket, so it only wins a name
// when nothing in any linked object (not even a lazy common symbol)
// defines it.
func GetDsoRank(file *SharedFile) uint64 {
	return (dsoRankBucket << 24) + uint64(file.Priority)
}
