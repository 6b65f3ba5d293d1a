// internal/rewrite/path.go
//
// Path helpers shared by the resolver and the cleaner.
//
// • splitSegments(path) ─ “/course/edit/cs101” → [course edit cs101].
// • stripScript(path, suffix) ─ drops a trailing script name so a clean
//   slug can be appended.
// • buildPath(p) ─ exactly one leading slash, “” when nothing is left.
// • asciiLower(s) ─ lowercases A-Z only, leaving multibyte text as is.

package rewrite

import "strings"

// splitSegments trims outer slashes and splits on “/”.  The root path
// yields one empty segment, matching how the platform explodes paths.
func splitSegments(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// stripScript removes suffix from the end of path when given and present,
// else a trailing “/index.php”, else a trailing “.php”.  Paths with none of
// these come back unchanged.
func stripScript(path, suffix string) string {
	if suffix != "" && strings.HasSuffix(path, suffix) {
		return strings.TrimSuffix(path, suffix)
	}
	if strings.HasSuffix(path, "/index.php") {
		return strings.TrimSuffix(path, "/index.php")
	}
	return strings.TrimSuffix(path, ".php")
}

// buildPath guarantees exactly one leading slash.  An empty or all-slash
// input yields "".
func buildPath(p string) string {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// asciiLower folds A-Z and nothing else, so slugs built from names with
// accented capitals match the platform's byte-wise lowercasing.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
