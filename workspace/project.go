package workspace

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GeneratedFileName is the accessor file slang generates.
const GeneratedFileName = "strings.g.dart"

// slangPackages are pubspec dependencies that mark a slang project.
var slangPackages = []string{"slang", "slang_flutter", "slang_build_runner"}

type pubspec struct {
	Dependencies    map[string]any `yaml:"dependencies"`
	DevDependencies map[string]any `yaml:"dev_dependencies"`
}

// IsSlangProject reports whether root looks like a slang project: it has a
// slang configuration file, depends on a slang package in pubspec.yaml, or
// contains a generated accessor file.
func IsSlangProject(root string, configNames []string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "pubspec.yaml")); err == nil {
		var spec pubspec
		if err := yaml.Unmarshal(data, &spec); err == nil {
			for _, pkg := range slangPackages {
				if _, ok := spec.Dependencies[pkg]; ok {
					return true
				}
				if _, ok := spec.DevDependencies[pkg]; ok {
					return true
				}
			}
		}
	}

	generated, err := New(root).Find(GeneratedFileName)
	return err == nil && len(generated) > 0
}
