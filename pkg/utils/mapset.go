package utils

// MapSet is the generic membership set shared by Context.ExcludeLibs
// (archive names named in --exclude-libs) and Context.Visited (the DSO
// dedup set used while walking DT_NEEDED closures). Both only ever ask
// "have I seen this string", so a plain map-backed set covers them
// without a third-party dependency.
type MapSet[K comparable] struct {
	m map[K]struct{}
}

func NewMapSet[K comparable]() MapSet[K] {
	return MapSet[K]{
		m: make(map[K]struct{}),
	}
}

func (s MapSet[K]) Add(val K) {
	s.m[val] = struct{}{}
}

func (s MapSet[K]) Contains(val K) bool {
	_, ok := s.m[val]
	return ok
}
