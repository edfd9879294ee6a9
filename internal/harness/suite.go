package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Golden comparison outcomes reported by RunFile.
const (
	GoldenNone     = ""         // no golden file and none written
	GoldenMatch    = "match"    // snapshot equals the golden file
	GoldenMismatch = "mismatch" // snapshot differs from the golden file
	GoldenUpdated  = "updated"  // golden file was (re)written
)

// FileResult is the outcome of running one scenario file.
type FileResult struct {
	Path     string
	Name     string
	Pass     bool
	Errors   []string
	Golden   string
	Snapshot []byte
}

// FindScenarioFiles returns the .yaml and .yml files under dir, sorted.
// If filter is non-empty, only files whose base name (without extension)
// matches the glob pattern are returned.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Golden snapshots live beside scenarios; never treat them as input.
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			base := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, base)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// GoldenPath returns where the golden snapshot for a scenario file lives:
// {scenario dir}/golden/{name}.golden
func GoldenPath(scenarioPath, name string) string {
	return filepath.Join(filepath.Dir(scenarioPath), "golden", name+".golden")
}

// RunFile loads and runs one scenario file. When a golden file exists the
// snapshot is compared against it; with update set, the golden file is
// written instead.
func RunFile(path string, update bool, opts ...Option) (*FileResult, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	snapshot, err := NewSnapshot(scenario.Name, result).MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: snapshot: %w", scenario.Name, err)
	}

	fr := &FileResult{
		Path:     path,
		Name:     scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		Snapshot: snapshot,
	}

	goldenPath := GoldenPath(path, scenario.Name)
	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return nil, fmt.Errorf("create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
			return nil, fmt.Errorf("write golden file: %w", err)
		}
		fr.Golden = GoldenUpdated
		return fr, nil
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fr.Golden = GoldenNone
	case err != nil:
		return nil, fmt.Errorf("read golden file: %w", err)
	case bytes.Equal(bytes.TrimSpace(golden), bytes.TrimSpace(snapshot)):
		fr.Golden = GoldenMatch
	default:
		fr.Golden = GoldenMismatch
		fr.Pass = false
		fr.Errors = append(fr.Errors, fmt.Sprintf("snapshot differs from %s", goldenPath))
	}

	return fr, nil
}
