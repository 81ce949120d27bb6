package mcpserver

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// filepathGlob matches pattern against every regular file under root. A
// pattern containing "**" walks the whole tree and matches the remainder
// against each entry's path relative to root; otherwise it delegates to
// filepath.Glob for a single-directory match.
func filepathGlob(root, pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		return filepath.Glob(filepath.Join(root, pattern))
	}
	rest := strings.TrimPrefix(pattern, "**/")
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if ok, _ := filepath.Match(rest, filepath.Base(rel)); ok {
			matches = append(matches, path)
		}
		return nil
	})
	sort.Strings(matches)
	return matches, err
}
