package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/ir"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeParseFailed = "E003" // Document or event list could not be decoded
	ErrCodeCUEFailed   = "E004" // CUE load or evaluation failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Database error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadArgs     = "E008" // Invalid command arguments

	ErrCodeNoMatch    = "E_NO_MATCH"
	ErrCodeWarnings   = "E_WARNINGS"
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCriteriaDocument returns the JSON bytes of a criteria document.
//
// A .json file is returned as is. A .cue file, or a directory holding a
// CUE package, is evaluated and exported as JSON; every field must be
// concrete.
func LoadCriteriaDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("criteria not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("error accessing criteria: %v", err)}
	}

	if info.IsDir() {
		return loadCUEPackage(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading criteria: %v", err)}
	}

	if filepath.Ext(path) == ".cue" {
		ctx := cuecontext.New()
		return exportCUE(ctx.CompileBytes(data, cue.Filename(path)))
	}
	return data, nil
}

// loadCUEPackage builds the CUE package in dir, unifying all its files.
func loadCUEPackage(dir string) ([]byte, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeCUEFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueLoadError("loading CUE files", inst.Err)
	}

	return exportCUE(ctx.BuildInstance(inst))
}

func exportCUE(value cue.Value) ([]byte, error) {
	if err := value.Err(); err != nil {
		return nil, cueLoadError("building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError("CUE value is not concrete", err)
	}
	data, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError("exporting CUE as JSON", err)
	}
	return data, nil
}

// cueLoadError keeps the first source position CUE reports.
func cueLoadError(context string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeCUEFailed, Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// LoadEvents reads an event list. .yaml and .yml files hold a YAML
// sequence of mappings; anything else is read as a JSON array of objects.
func LoadEvents(path string) ([]ir.Event, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("events not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading events: %v", err)}
	}

	var root ir.IRValue
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding YAML events: %v", err)}
		}
		if root, err = ir.FromAny(raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("converting YAML events: %v", err)}
		}
	default:
		if root, err = ir.UnmarshalIRValue(data); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding JSON events: %v", err)}
		}
	}

	return eventsFromValue(root)
}

func eventsFromValue(root ir.IRValue) ([]ir.Event, error) {
	arr, ok := root.(ir.IRArray)
	if !ok {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("events must be a list, got %T", root)}
	}
	events := make([]ir.Event, 0, len(arr))
	for i, v := range arr {
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("event %d is not an object", i)}
		}
		events = append(events, obj)
	}
	return events, nil
}

// loadErrorCode returns the code carried by err, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
