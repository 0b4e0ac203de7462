// Package config loads the TOML settings of the table editor.
//
// A missing file is not an error: every key has a default, and keys present
// in the file override only themselves.
//
//	[csv]
//	delimiter = ";"
//	skip_empty_lines = true
//
//	[history]
//	max_size = 100
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"gridsheet/internal/codec"
	"gridsheet/internal/history"
)

// FileName is the config file looked up in the user config directory.
const FileName = "gridsheet.toml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ParseError reports malformed TOML.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Config is the complete settings tree.
type Config struct {
	CSV     CSVConfig     `toml:"csv"`
	History HistoryConfig `toml:"history"`
	UI      UIConfig      `toml:"ui"`
}

// CSVConfig controls how files are split into cells.
type CSVConfig struct {
	Delimiter      string `toml:"delimiter"`
	SkipEmptyLines bool   `toml:"skip_empty_lines"`
	Header         bool   `toml:"header"`
	LineTerminator string `toml:"line_terminator"`
}

// HistoryConfig controls undo.
type HistoryConfig struct {
	MaxSize int `toml:"max_size"`
}

// UIConfig controls the terminal host.
type UIConfig struct {
	Locale   string `toml:"locale"`
	ColWidth int    `toml:"col_width"`
	Watch    bool   `toml:"watch"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CSV: CSVConfig{
			Delimiter:      ",",
			LineTerminator: "\n",
		},
		History: HistoryConfig{MaxSize: history.DefaultMaxSize},
		UI: UIConfig{
			Locale:   "en",
			ColWidth: 16,
			Watch:    true,
		},
	}
}

// DefaultPath returns the config path under the user config directory,
// or an empty string when that directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gridsheet", FileName)
}

// Load reads path over the defaults. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := Parse(path, data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Parse decodes TOML data onto cfg and validates the result. Keys absent
// from data keep their current values.
func Parse(source string, data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail later at load time.
func (c Config) Validate() error {
	if _, err := c.CodecOptions(); err != nil {
		return fmt.Errorf("%w: csv: %w", ErrInvalid, err)
	}
	if c.UI.ColWidth < 0 {
		return fmt.Errorf("%w: ui.col_width must not be negative", ErrInvalid)
	}
	return nil
}

// CodecOptions converts the [csv] section into codec options.
func (c Config) CodecOptions() (codec.Options, error) {
	delim, err := codec.ParseDelimiter(c.CSV.Delimiter)
	if err != nil {
		return codec.Options{}, err
	}
	opts := codec.Options{
		Delimiter:      delim,
		SkipEmptyLines: c.CSV.SkipEmptyLines,
		Header:         c.CSV.Header,
		LineTerminator: unescapeTerminator(c.CSV.LineTerminator),
	}
	if err := opts.Validate(); err != nil {
		return codec.Options{}, err
	}
	return opts, nil
}

// unescapeTerminator accepts the literal spellings `\n` and `\r\n` as well as
// real control characters, since both are easy to write in TOML.
func unescapeTerminator(s string) string {
	switch s {
	case `\n`, "lf", "LF":
		return "\n"
	case `\r\n`, "crlf", "CRLF":
		return "\r\n"
	}
	return s
}
