package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/importgraph"
)

// Report is the bundler-neutral input document.
type Report struct {
	Target      string                          `json:"target" yaml:"target"`
	Bundler     string                          `json:"bundler,omitempty" yaml:"bundler,omitempty"`
	Entry       string                          `json:"entry,omitempty" yaml:"entry,omitempty"`
	Root        string                          `json:"root,omitempty" yaml:"root,omitempty"`
	OutputBytes int64                           `json:"output_bytes" yaml:"output_bytes"`
	Modules     []Module                        `json:"modules" yaml:"modules"`
	Imports     map[string][]importgraph.Import `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// Module is one input file of a report.
//
// External is optional; when it is missing it is derived from the path.
type Module struct {
	Path     string `json:"path" yaml:"path"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	External *bool  `json:"external,omitempty" yaml:"external,omitempty"`
}

// Records returns the modules as bundle records. Call [Report.Normalize]
// first so External is set.
func (r *Report) Records() []bundle.ModuleRecord {
	out := make([]bundle.ModuleRecord, len(r.Modules))
	for i, m := range r.Modules {
		out[i] = bundle.ModuleRecord{Path: m.Path, Bytes: m.Bytes}
		if m.External != nil {
			out[i].External = *m.External
		} else {
			out[i].External = strings.Contains(m.Path, nodeModules)
		}
	}
	return out
}

// Validate checks the parts of a report that normalization cannot repair.
func (r *Report) Validate() error {
	for i, m := range r.Modules {
		if strings.TrimSpace(m.Path) == "" {
			return errors.New(errors.ErrCodeInvalidReport, "module %d has an empty path", i)
		}
	}
	for file, imps := range r.Imports {
		if strings.TrimSpace(file) == "" {
			return errors.New(errors.ErrCodeInvalidReport, "imports contain an empty module path")
		}
		for _, imp := range imps {
			if strings.TrimSpace(imp.Path) == "" {
				return errors.New(errors.ErrCodeInvalidReport, "module %s has an import with an empty path", file)
			}
		}
	}
	return nil
}

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", s)
}

// ReadReport decodes a report from r. An empty format sniffs the content:
// documents starting with '{' are JSON, everything else is YAML.
//
// The report is validated and normalized before it is returned.
func ReadReport(r io.Reader, format Format) (*Report, error) {
	br := bufio.NewReader(r)
	if format == "" {
		format = sniff(br)
	}

	var rep Report
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(br).Decode(&rep)
	case FormatYAML:
		err = yaml.NewDecoder(br).Decode(&rep)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
	}
	if err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeInvalidReport, "empty report")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidReport, err, "decode %s report", format)
	}

	if err := rep.Validate(); err != nil {
		return nil, err
	}
	rep.Normalize()
	return &rep, nil
}

// ImportReport reads the report file at path. "-" reads standard input.
func ImportReport(path string) (*Report, error) {
	if path == "-" {
		return ReadReport(os.Stdin, "")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "report %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rep, err := ReadReport(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if rep.Target == "" {
		rep.Target = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rep, nil
}

func sniff(br *bufio.Reader) Format {
	for n := 1; ; n++ {
		peek, err := br.Peek(n)
		if len(peek) < n || err != nil {
			return FormatJSON
		}
		c := peek[n-1]
		if bytes.IndexByte([]byte(" \t\r\n"), c) >= 0 {
			continue
		}
		if c == '{' {
			return FormatJSON
		}
		return FormatYAML
	}
}
