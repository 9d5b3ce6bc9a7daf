package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for a data file whose extension has no
// decoder.
var ErrUnsupportedFormat = errors.New("data: unsupported file format")

// Extensions tried, in order, for a file named without extension.
var Extensions = []string{".yaml", ".yml", ".json"}

// FileFinder lists the matches of file under location, highest priority
// first. *app.Application implements it.
type FileFinder interface {
	FindFiles(location, file string) []string
}

// findAll returns the matches of file under location, lowest priority
// first. Without extension every supported one is tried.
func findAll(finder FileFinder, location, file string) []string {
	names := []string{file}
	if filepath.Ext(file) == "" {
		names = names[:0]
		for _, ext := range Extensions {
			names = append(names, file+ext)
		}
	}

	var found []string
	for _, name := range names {
		found = append(found, finder.FindFiles(location, name)...)
	}
	slices.Reverse(found)
	return found
}

// ReadFile decodes a YAML or JSON file into a map.
func ReadFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	out := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &out)
	case ".json":
		err = json.Unmarshal(raw, &out)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("data: decoding %s: %w", path, err)
	}
	return out, nil
}
