package linker

import (
	"regexp"
	"strings"
)

// globToRegex translates one shell glob (`*`, `?`, `[...]`, POSIX shell
// semantics, no filename-separator special casing) into a regex
// fragment anchored at both ends.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '[':
			j := i + 1
			if j < len(glob) && (glob[j] == '^' || glob[j] == '!') {
				j++
			}
			if j < len(glob) && glob[j] == ']' {
				j++
			}
			for j < len(glob) && glob[j] != ']' {
				j++
			}
			if j >= len(glob) {
				b.WriteString(regexp.QuoteMeta("["))
				continue
			}
			cls := glob[i+1 : j]
			cls = strings.Replace(cls, "!", "^", 1)
			b.WriteByte('[')
			b.WriteString(cls)
			b.WriteByte(']')
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// compileGroup concatenates a pattern group's globs (and separately
// its C++-demangled globs) into one alternation regex each, bounding
// regex-compilation cost to one compile per group rather than one per
// pattern.
func compileGroup(globs []string) *regexp.Regexp {
	if len(globs) == 0 {
		return nil
	}
	parts := make([]string, len(globs))
	for i, g := range globs {
		parts[i] = globToRegex(g)
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}

func demangle(name string) string {
	// Demangling C++ names is part of the upstream symbol-decoration
	// pipeline, out of scope here; cpp_version_patterns degrade to
	// matching the raw (possibly still-mangled) name.
	return name
}

// ApplyVersionScript is pass 13's first half: each pattern
// group's literal names are resolved by direct symbol-table lookup,
// its globs and demangled-name globs by the compiled per-group regex.
// Later groups in arg.version_patterns / arg.cpp_version_patterns
// override earlier ones, so groups are applied in order and a match
// always overwrites sym.VerIdx.
func ApplyVersionScript(ctx *Context) {
	apply := func(groups []VersionPatternGroup, useDemangled bool) {
		for _, g := range groups {
			re := compileGroup(g.Globs)
			cppRe := compileGroup(g.CppGlobs)

			assign := func(sym *Symbol) {
				sym.VerIdx = g.VerNdx
			}

			for _, lit := range g.Literals {
				if sym, ok := ctx.SymbolMap[lit]; ok && sym.File != nil {
					assign(sym)
				}
			}

			if re == nil && cppRe == nil {
				continue
			}
			for _, file := range ctx.Objs {
				if file == ctx.InternalObj {
					continue
				}
				for _, sym := range file.GetGlobalSyms() {
					if sym.File != InputFile(file) {
						continue
					}
					if re != nil && re.MatchString(sym.Name) {
						assign(sym)
						continue
					}
					if useDemangled && cppRe != nil && cppRe.MatchString(demangle(sym.Name)) {
						assign(sym)
					}
				}
			}
		}
	}

	apply(ctx.Arg.VersionPatterns, false)
	apply(ctx.Arg.CppVersionPatterns, true)
}

// ParseSymbolVersion is pass 13's second half: only meaningful
// when producing a shared library, where every exported definition
// needs a .gnu.version_d entry. A symbol's "@VERSION" suffix (recorded
// in SymVers by splitSymbolVersions) must name one of
// arg.version_definitions; the assigned index starts right after the
// two reserved indices, and a non-default ("@", not "@@") suffix is
// marked hidden so the unversioned name does not resolve to it.
func ParseSymbolVersion(ctx *Context) {
	if !ctx.Arg.Shared {
		return
	}

	table := make(map[string]int, len(ctx.Arg.VersionDefinitions))
	for i, v := range ctx.Arg.VersionDefinitions {
		table[v.Name] = i
	}

	for _, file := range ctx.Objs {
		if file == ctx.InternalObj {
			continue
		}
		globals := file.GetGlobalSyms()
		for i, sym := range globals {
			if sym.File != InputFile(file) || i >= len(file.SymVers) {
				continue
			}
			raw := file.SymVers[i]
			if raw == "" {
				continue
			}

			isDefault := strings.HasPrefix(raw, "@@")
			name := strings.TrimPrefix(strings.TrimPrefix(raw, "@@"), "@")

			idx, ok := table[name]
			if !ok {
				ctx.Errors.Addf("unknown version %q for symbol %s", name, sym.Name)
				continue
			}

			verIdx := uint16(idx) + VER_NDX_LAST_RESERVED + 1
			if !isDefault {
				verIdx |= VERSYM_HIDDEN
			}
			sym.VerIdx = verIdx
		}
	}
}
