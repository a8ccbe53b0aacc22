// Package romname provides helpers for turning ROM file names into search
// terms and for filtering ROM listings with exclude patterns.
package romname

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	parenGroup   = regexp.MustCompile(`\([^)]*\)`)
	bracketGroup = regexp.MustCompile(`\[[^\]]*\]`)
	braceGroup   = regexp.MustCompile(`\{[^}]*\}`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Base returns the file name without its extension.
func Base(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// Clean strips the extension and the usual region/language/dump-quality tags
// from a ROM file name, producing a human search term. The result may be empty
// if the name consisted entirely of bracketed tags.
func Clean(fileName string) string {
	name := Base(fileName)
	name = parenGroup.ReplaceAllString(name, "")
	name = bracketGroup.ReplaceAllString(name, "")
	name = braceGroup.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ShouldExclude reports whether fileName matches any of the exclude patterns.
// Matching is case-insensitive and tries, in order: glob-style match (* and ?)
// against the full name, equality against the basename without extension, and
// a plain substring check.
func ShouldExclude(fileName string, patterns []string) bool {
	pats := normalizePatterns(patterns)
	if len(pats) == 0 {
		return false
	}

	lower := strings.ToLower(fileName)
	base := Base(lower)

	for _, p := range pats {
		if globMatch(p, lower) {
			return true
		}
	}
	for _, p := range pats {
		// Patterns may carry a path prefix; compare basenames only.
		pb := Base(lastPathComponent(p))
		if pb == base {
			return true
		}
	}
	for _, p := range pats {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// FilterRoms splits files into kept and excluded sets, honouring an optional
// extension allow-list and exclude patterns.
func FilterRoms(files []string, extensions, exclude []string) (kept, excluded []string) {
	allowed := normalizePatterns(extensions)

	for _, name := range files {
		if len(allowed) > 0 {
			ext := strings.ToLower(filepath.Ext(name))
			if !contains(allowed, ext) {
				excluded = append(excluded, name)
				continue
			}
		}
		if ShouldExclude(name, exclude) {
			excluded = append(excluded, name)
			continue
		}
		kept = append(kept, name)
	}
	return kept, excluded
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func globMatch(pattern, name string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

func lastPathComponent(p string) string {
	if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
