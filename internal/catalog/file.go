package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/coursepick/internal/model"
)

type tomlCatalog struct {
	Course []model.CourseDTO `toml:"course"`
}

// LoadFile reads a catalog file. JSON files hold an array of courses in the
// wire format; TOML files hold [[course]] tables with the same keys.
func LoadFile(path string) ([]model.CourseDTO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var courses []model.CourseDTO
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &courses); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	case ".toml":
		var doc tomlCatalog
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		courses = doc.Course
	default:
		return nil, fmt.Errorf("unsupported catalog file %q (want .json or .toml)", path)
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("catalog file is empty")
	}
	return courses, nil
}
