package sources

import (
	"os"
	"slices"
	"strings"
)

// DiscoverSubjects lists the subject directories under root. A subject
// directory name starts with one of prefixes and ends in a digit; names in
// exclude are skipped. The result is sorted by name.
func DiscoverSubjects(root string, prefixes, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var subjects []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == "" || slices.Contains(exclude, name) {
			continue
		}
		last := name[len(name)-1]
		if last < '0' || last > '9' {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				subjects = append(subjects, name)
				break
			}
		}
	}
	return subjects, nil
}
