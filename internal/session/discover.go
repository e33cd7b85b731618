package session

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNoImages is returned when the target directory (and its immediate
// subdirectories) holds nothing matching the image patterns.
var ErrNoImages = errors.New("no images found")

// DiscoverImages scans dir for files matching the given glob patterns,
// case-insensitively. When the directory root holds no matching files,
// its immediate non-hidden subdirectories are scanned instead and the
// returned identifiers take the form "subdir/name". Identifiers are
// sorted; ordering for display is decided by the session, not here.
func DiscoverImages(dir string, patterns []string) ([]string, error) {
	globs, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		if matchAny(globs, entry.Name()) {
			images = append(images, entry.Name())
		}
	}

	// A directory of directories: label the contents one level down.
	if len(images) == 0 {
		for _, entry := range entries {
			if !entry.IsDir() || isHidden(entry.Name()) {
				continue
			}
			sub, err := os.ReadDir(path.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to read subdirectory %s: %w", entry.Name(), err)
			}
			for _, file := range sub {
				if file.IsDir() || isHidden(file.Name()) {
					continue
				}
				if matchAny(globs, file.Name()) {
					images = append(images, entry.Name()+"/"+file.Name())
				}
			}
		}
	}

	sort.Strings(images)
	return images, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid image pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	lower := strings.ToLower(name)
	for _, g := range globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
