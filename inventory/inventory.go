// Package inventory loads device inventory documents. The format is chosen
// by file extension; every format carries the same shape: a top-level
// "devices" key holding an ordered list of device mappings.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl"
	"gopkg.in/yaml.v2"

	"github.com/sheenubhat/network-automation-scripts/model"
)

type Format string

const (
	JSONFormat Format = "json"
	TOMLFormat Format = "toml"
	YAMLFormat Format = "yaml"
	HCLFormat  Format = "hcl"
)

// ErrNotFound reports a missing inventory file. It is the only error class
// callers are expected to branch on besides ParseError.
var ErrNotFound = errors.New("inventory file not found")

// ParseError reports a malformed inventory document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse inventory %v: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports one invalid record. The loader collects these and
// keeps going, so one bad record never hides the rest of the inventory.
type SchemaError struct {
	Index    int
	Name     string
	Problems []error
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, problem := range e.Problems {
		msgs[i] = problem.Error()
	}
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("device %v at index %v: %v", name, e.Index, strings.Join(msgs, "; "))
}

type document struct {
	Devices []*model.Device `json:"devices" yaml:"devices" toml:"devices" hcl:"devices"`
}

// Load reads the inventory at path. Records that fail validation are
// dropped and reported via the returned SchemaErrors; the remaining
// records are returned in document order. An absent "devices" key is an
// empty inventory, not an error.
func Load(path string) ([]*model.Device, []*SchemaError, error) {
	format, err := formatForPath(path)
	if err != nil {
		return nil, nil, err
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("unable to read inventory %v: %w", path, err)
	}
	doc := new(document)
	if err := unmarshal(bytes, format, doc); err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}
	devices := []*model.Device{}
	schemaErrs := []*SchemaError{}
	for i, device := range doc.Devices {
		if device == nil {
			schemaErrs = append(schemaErrs, &SchemaError{Index: i, Problems: []error{errors.New("empty record")}})
			continue
		}
		if problems := device.Validate(); len(problems) > 0 {
			schemaErrs = append(schemaErrs, &SchemaError{Index: i, Name: device.Name, Problems: problems})
			continue
		}
		devices = append(devices, device)
	}
	return devices, schemaErrs, nil
}

// DuplicateNames returns inventory names that appear more than once, in
// first-occurrence order. Duplicates are legal but produce ambiguous
// artifact names, so callers warn about them.
func DuplicateNames(devices []*model.Device) []string {
	seen := map[string]int{}
	dupes := []string{}
	for _, device := range devices {
		seen[device.Name]++
		if seen[device.Name] == 2 {
			dupes = append(dupes, device.Name)
		}
	}
	return dupes
}

func formatForPath(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return JSONFormat, nil
	case strings.HasSuffix(path, ".toml"):
		return TOMLFormat, nil
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return YAMLFormat, nil
	case strings.HasSuffix(path, ".hcl"):
		return HCLFormat, nil
	default:
		return "", fmt.Errorf("unrecognized file format for inventory file: %v", path)
	}
}

func unmarshal(bytes []byte, format Format, doc *document) error {
	switch format {
	case JSONFormat:
		return json.Unmarshal(bytes, doc)
	case TOMLFormat:
		return toml.Unmarshal(bytes, doc)
	case YAMLFormat:
		return yaml.Unmarshal(bytes, doc)
	case HCLFormat:
		return hcl.Decode(doc, string(bytes))
	default:
		return fmt.Errorf("unrecognized format: %v", format)
	}
}
