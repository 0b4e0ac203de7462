// Package codec converts between delimited text and grid.Grid.
//
// Parsing never fails hard: malformed input yields the minimal grid [[""]]
// together with a *ParseError, and row-level problems are reported as
// warnings next to a best-effort grid.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"gridsheet/internal/grid"
)

var (
	// ErrParse marks every error produced by Parse.
	ErrParse = errors.New("parse error")

	// ErrInvalidDelimiter is returned for delimiters that cannot separate fields.
	ErrInvalidDelimiter = errors.New("invalid delimiter")

	// ErrInvalidTerminator is returned for line terminators other than "\n" and "\r\n".
	ErrInvalidTerminator = errors.New("invalid line terminator")
)

// Options controls parsing and serialization.
type Options struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// SkipEmptyLines drops blank lines instead of turning them into rows.
	SkipEmptyLines bool

	// Header marks the first row as column labels. It does not change the grid.
	Header bool

	// LineTerminator joins rows on output. Empty means "\n".
	LineTerminator string
}

// DefaultOptions returns comma-separated, LF-terminated options.
func DefaultOptions() Options {
	return Options{Delimiter: ',', LineTerminator: "\n"}
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o Options) terminator() string {
	if o.LineTerminator == "" {
		return "\n"
	}
	return o.LineTerminator
}

// Validate reports options the reader or writer would reject.
func (o Options) Validate() error {
	d := o.delimiter()
	if d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError || !utf8.ValidRune(d) {
		return fmt.Errorf("%w: %q", ErrInvalidDelimiter, d)
	}
	if t := o.terminator(); t != "\n" && t != "\r\n" {
		return fmt.Errorf("%w: %q", ErrInvalidTerminator, t)
	}
	return nil
}

// ParseDelimiter converts a configuration string into a delimiter rune.
// Escaped tab `\t` and the word "tab" are accepted for tab-separated files.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrInvalidDelimiter, s)
	}
	if err := (Options{Delimiter: r}).Validate(); err != nil {
		return 0, err
	}
	return r, nil
}

// ParseError describes input the reader could not tokenize.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any *ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Warning is a non-fatal note about one input line.
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Result is a parsed, rectangular grid plus any warnings collected on the way.
type Result struct {
	Grid     grid.Grid
	Warnings []Warning
}

// Parse reads text into a rectangular grid. On malformed input it returns
// the fallback grid [[""]] and a *ParseError; the Result is always usable.
func Parse(text string, opts Options) (Result, error) {
	fallback := Result{Grid: grid.Grid{{""}}}
	if err := opts.Validate(); err != nil {
		return fallback, &ParseError{Err: err}
	}

	src, cr := protectQuotedCR(text)
	r := csv.NewReader(strings.NewReader(src))
	r.Comma = opts.delimiter()
	r.FieldsPerRecord = -1

	var (
		rows  [][]string
		lines []int
		prev  int
		next  = 1 // first line after the previous record
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return fallback, &ParseError{Line: pe.Line, Column: pe.Column, Err: pe.Err}
			}
			return fallback, &ParseError{Err: err}
		}

		if cr != 0 {
			for i := range record {
				record[i] = strings.ReplaceAll(record[i], string(cr), "\r")
			}
		}

		line, _ := r.FieldPos(0)
		if !opts.SkipEmptyLines {
			for l := next; l < line; l++ {
				rows = append(rows, []string{""})
				lines = append(lines, l)
			}
		}
		rows = append(rows, record)
		lines = append(lines, line)
		off := int(r.InputOffset())
		next += strings.Count(src[prev:off], "\n")
		prev = off
	}

	if !opts.SkipEmptyLines && len(rows) > 0 {
		// One terminator ends the last record; anything after it is blank lines.
		tail := src[prev:]
		for i := 0; i < strings.Count(tail, "\n"); i++ {
			rows = append(rows, []string{""})
			lines = append(lines, next+i)
		}
	}

	g, warnings := normalize(rows, lines)
	return Result{Grid: g, Warnings: warnings}, nil
}

// protectQuotedCR replaces carriage returns inside quoted fields with a
// private-use rune absent from text, since csv.Reader folds "\r\n" in
// quoted fields to "\n". The returned rune is 0 when nothing was replaced.
func protectQuotedCR(text string) (string, rune) {
	if !strings.ContainsRune(text, '\r') {
		return text, 0
	}
	var marker rune
	for r := '\uE000'; r <= '\uF8FF'; r++ {
		if !strings.ContainsRune(text, r) {
			marker = r
			break
		}
	}
	if marker == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	inQuote, replaced := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == '\r' && inQuote:
			b.WriteRune(marker)
			replaced = true
			continue
		}
		b.WriteByte(c)
	}
	if !replaced {
		return text, 0
	}
	return b.String(), marker
}

// Normalize right-pads every row with empty cells to the widest row.
// An empty input yields [[""]]. The input rows are not modified.
func Normalize(rows [][]string) grid.Grid {
	g, _ := normalize(rows, nil)
	return g
}

func normalize(rows [][]string, lines []int) (grid.Grid, []Warning) {
	if len(rows) == 0 {
		return grid.Grid{{""}}, nil
	}
	maxCols := 0
	for _, row := range rows {
		maxCols = max(maxCols, len(row))
	}
	if maxCols == 0 {
		maxCols = 1
	}

	var warnings []Warning
	out := make(grid.Grid, len(rows))
	for i, row := range rows {
		nr := make([]string, maxCols)
		copy(nr, row)
		out[i] = nr
		// A blank line is a single empty field; padding it is not worth a warning.
		if lines != nil && len(row) < maxCols && !(len(row) == 1 && row[0] == "") {
			warnings = append(warnings, Warning{
				Line:    lines[i],
				Message: fmt.Sprintf("row %d has %d fields, padded to %d", i+1, len(row), maxCols),
			})
		}
	}
	return out, warnings
}

// Serialize writes g as delimited text. Fields holding the delimiter, quotes
// or line breaks are quoted and written byte for byte, so carriage returns
// inside cells survive either terminator. The last row carries no trailing
// terminator.
func Serialize(g grid.Grid, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if len(g) == 0 {
		return "", nil
	}
	delim, term := opts.delimiter(), opts.terminator()

	var b strings.Builder
	for i, row := range g {
		if i > 0 {
			b.WriteString(term)
		}
		for j, field := range row {
			if j > 0 {
				b.WriteRune(delim)
			}
			if !fieldNeedsQuotes(field, delim) {
				b.WriteString(field)
				continue
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
	}
	// A lone empty last row would vanish as a trailing terminator on reparse.
	if last := g[len(g)-1]; len(g) > 1 && len(last) == 1 && last[0] == "" {
		b.WriteString(`""`)
	}
	return b.String(), nil
}

// fieldNeedsQuotes follows csv.Writer: delimiter, quote, CR, LF, a leading
// space and the lone `\.` are quoted.
func fieldNeedsQuotes(field string, delim rune) bool {
	if field == "" {
		return false
	}
	if field == `\.` {
		return true
	}
	if strings.ContainsRune(field, delim) || strings.ContainsAny(field, "\"\r\n") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(field)
	return unicode.IsSpace(r)
}
