package cli

import (
	"io"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/report"
)

const formatTable = "table"

// validateOutput checks a --format value.
func validateOutput(format string) error {
	return errors.ValidateFormat(format, formatTable, string(report.FormatJSON), string(report.FormatYAML))
}

// writeDoc writes v as JSON or YAML. Table output is rendered by each
// command itself.
func writeDoc(w io.Writer, v any, format string) error {
	return report.Encode(w, v, report.Format(format))
}
