// Package textfile converts option lists to and from the line-oriented
// "name:weight" export format.
package textfile

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/optionspicker/types"
)

// LineError reports the line an import failed on. Err wraps
// types.ErrFormat or types.ErrInvalidArgument.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Export renders options with a generation timestamp of now.
func Export(options []types.Option) string {
	return ExportAt(options, time.Now())
}

// ExportAt renders options as a commented header followed by one
// "name:weight" line per option. The result has no trailing newline.
func ExportAt(options []types.Option, generated time.Time) string {
	var sb strings.Builder
	sb.WriteString("# OptionsPicker Export\n")
	fmt.Fprintf(&sb, "# Generated on %s UTC\n", generated.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "# Total options: %d\n", len(options))
	sb.WriteString("\n")

	for _, o := range options {
		sb.WriteString(o.Name)
		sb.WriteString(":")
		sb.WriteString(FormatWeight(o.Weight))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatWeight renders a weight with the fewest decimal digits that parse
// back to the same value, so whole weights carry no decimal point.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// DataURI returns the export as a self-contained text/plain data URI.
func DataURI(options []types.Option) string {
	return "data:text/plain;charset=utf-8," + escapeData(Export(options))
}

// escapeData percent-encodes everything outside the RFC 3986 unreserved set.
func escapeData(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Import parses an export document. Blank lines and lines starting with
// '#' are skipped. When a name repeats exactly, the last line wins and the
// entry keeps the position where the name first appeared. The first bad
// line aborts the import.
func Import(text string) ([]types.Option, error) {
	var options []types.Option
	index := map[string]int{}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		o, err := ParseLine(line)
		if err != nil {
			return nil, &LineError{Line: i + 1, Text: line, Err: err}
		}

		if at, ok := index[o.Name]; ok {
			options[at] = o
			continue
		}
		index[o.Name] = len(options)
		options = append(options, o)
	}

	return options, nil
}

// ParseLine parses a single "name[:weight]" entry, splitting on the last
// colon so names may contain colons. A missing or empty weight is 1.
func ParseLine(line string) (types.Option, error) {
	name := line
	weight := 1.0

	if i := strings.LastIndex(line, ":"); i >= 0 {
		name = line[:i]
		if ws := strings.TrimSpace(line[i+1:]); ws != "" {
			w, err := strconv.ParseFloat(ws, 64)
			if err != nil {
				return types.Option{}, fmt.Errorf("%w: weight %q is not a number", types.ErrFormat, ws)
			}
			weight = w
		}
	}

	return types.NewOption(name, weight)
}
