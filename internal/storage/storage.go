package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gridsheet/internal/codec"
	"gridsheet/internal/document"
)

// ReadText returns the whole file as text. A missing file reads as empty.
func ReadText(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("error reading %s: %w", filename, err)
	}
	return string(data), nil
}

// WriteText replaces filename with text via a temporary file in the same
// directory, so readers never observe a half-written file.
func WriteText(filename, text string) error {
	dir := filepath.Dir(filename)
	f, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(filename); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	return nil
}

// Load reads filename into d with a fresh history and returns the raw text.
// Parse problems leave d holding a single empty cell; the *codec.ParseError
// is returned as is.
func Load(d *document.Document, filename string) (string, error) {
	text, err := ReadText(filename)
	if err != nil {
		return "", err
	}
	return text, d.Load(text)
}

// Reload re-reads filename into d keeping its history. Nothing happens when
// the file still holds last; changed reports whether the file differed.
// Text that does not parse leaves d as it was.
func Reload(d *document.Document, filename, last string) (text string, changed bool, err error) {
	text, err = ReadText(filename)
	if err != nil {
		return last, false, err
	}
	if text == last {
		return text, false, nil
	}
	return text, true, d.Refresh(text)
}

// Save writes d to filename, clears its dirty flag and returns the text
// written.
func Save(d *document.Document, filename string) (string, error) {
	text, err := d.Serialize()
	if err != nil {
		return "", fmt.Errorf("error serializing: %w", err)
	}
	if err := WriteText(filename, text); err != nil {
		return "", err
	}
	d.ClearDirty()
	return text, nil
}

// IsParseError reports whether err came from malformed file contents
// rather than from the file system.
func IsParseError(err error) bool {
	return errors.Is(err, codec.ErrParse)
}
