package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fenrow/prehook/pkg/safeio"
)

// manifestFileName is the hook manifest expected at a source's root.
const manifestFileName = ".pre-commit-hooks.yaml"

// parseManifest reads a source's hook manifest: a top-level YAML list of
// hook definitions.
func parseManifest(repoPath string) ([]Definition, error) {
	manifestPath := filepath.Join(repoPath, manifestFileName)

	data, err := safeio.ReadFileContained(repoPath, manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source has no %s manifest", manifestFileName)
		}
		return nil, err
	}

	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", manifestFileName, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s declares no hooks", manifestFileName)
	}

	for i, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%s: hook %d missing id", manifestFileName, i)
		}
		if def.Entry == "" {
			return nil, fmt.Errorf("%s: hook %q missing entry", manifestFileName, def.ID)
		}
	}

	return defs, nil
}

// pyProject is the subset of pyproject.toml needed to identify the package.
type pyProject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// readDistributionName extracts the distribution name from a source's
// pyproject.toml, checking PEP 621 metadata first, then poetry. Returns ""
// when the file is absent or carries no name.
func readDistributionName(repoPath string) string {
	data, err := safeio.ReadFileContained(repoPath, filepath.Join(repoPath, "pyproject.toml"))
	if err != nil {
		return ""
	}

	var project pyProject
	if err := toml.Unmarshal(data, &project); err != nil {
		return ""
	}

	if project.Project.Name != "" {
		return project.Project.Name
	}
	return project.Tool.Poetry.Name
}
