package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason kinds, tagged on each validation error.
const (
	KindEmptyFile       = "EmptyFile"
	KindInvalidHeader   = "InvalidHeader"
	KindInvalidData     = "InvalidData"
	KindValidationError = "ValidationError"
)

// The observation files carry a fixed column layout: an optional leading
// timestamp column, mandatory lat/lon, up to 200 numbered instances per
// meteorological variable, and up to 4 trailing categorical columns.
// Numeric variables always precede categorical ones; the ordering is part
// of the producer contract and the pattern enforces it.
const (
	// HeaderPattern matches the first CSV line of a well-formed file.
	HeaderPattern = `^(time,)?lat,lon(,(air_pressure|air_temperature|relative_humidity|wind_direction|wind_speed)_([1-9]\d?|1\d{2}|200))*(,(cloud_cover|cloud_base|visibility|precipitation)){0,4}$`

	// RowPattern matches a data line: optional leading timestamp, then at
	// least two decimal fields (lat, lon), then any further decimal fields.
	RowPattern = `^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},)?-?\d+(\.\d+)?,-?\d+(\.\d+)?(,-?\d+(\.\d+)?)*$`
)

var (
	headerRe = regexp.MustCompile(HeaderPattern)
	rowRe    = regexp.MustCompile(RowPattern)
)

// Reason is a tagged validation error.
type Reason struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}

// Verdict is the validator's structured pass/fail result.
type Verdict struct {
	Valid  bool     `json:"valid"`
	Errors []Reason `json:"errors,omitempty"`
}

func invalid(kind, detail string) Verdict {
	return Verdict{Errors: []Reason{{Kind: kind, Detail: detail}}}
}

// Validate runs the cheap structural shape-check against tabular content:
// header schema plus a two-row sample (second and last line). Full-file
// validation is avoided on purpose; this is a shape-check, not a semantic
// validator. Each failure short-circuits with a single tagged reason.
func Validate(content string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = invalid(KindValidationError, fmt.Sprintf("unexpected error while validating: %v", r))
		}
	}()

	lines := splitLines(content)
	if len(lines) == 0 {
		return invalid(KindEmptyFile, "file contains no data")
	}

	header := lines[0]
	if !headerRe.MatchString(header) {
		return invalid(KindInvalidHeader, fmt.Sprintf("header does not match schema: %q", header))
	}

	for _, row := range sampleRows(lines) {
		if !rowRe.MatchString(row) {
			return invalid(KindInvalidData, fmt.Sprintf("row does not match numeric pattern: %q", row))
		}
	}

	return Verdict{Valid: true}
}

// splitLines returns the non-empty trimmed lines of content.
func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// sampleRows picks the structural sample: the second and last line, or
// whatever data lines remain when the file has two lines or fewer.
func sampleRows(lines []string) []string {
	switch {
	case len(lines) <= 1:
		return nil
	case len(lines) == 2:
		return lines[1:]
	default:
		return []string{lines[1], lines[len(lines)-1]}
	}
}
