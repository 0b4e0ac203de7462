// Package i18n resolves dotted message keys such as "buttons.undo"
// against per-language tables. Lookups never fail: an unknown key
// resolves to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a requested locale is unknown.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Table is one language's messages, flattened to dotted keys.
type Table struct {
	locale   string
	messages map[string]string
}

// Catalog holds every available language.
type Catalog struct {
	tables map[string]*Table
}

// Load parses the embedded language files.
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}
	c := &Catalog{tables: make(map[string]*Table)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", name, err)
		}
		t, err := Parse(strings.TrimSuffix(name, ".yaml"), data)
		if err != nil {
			return nil, err
		}
		c.tables[t.locale] = t
	}
	return c, nil
}

// MustLoad is Load for the embedded tables, which are known to parse.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a table from a nested YAML mapping.
func Parse(locale string, data []byte) (*Table, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing locale %s: %w", locale, err)
	}
	t := &Table{locale: locale, messages: make(map[string]string)}
	flatten("", tree, t.messages)
	return t, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case string:
			out[key] = v
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// Table returns the table for locale, falling back to DefaultLocale.
// The second result reports whether locale itself was found.
func (c *Catalog) Table(locale string) (*Table, bool) {
	if t, ok := c.tables[strings.ToLower(locale)]; ok {
		return t, true
	}
	return c.tables[DefaultLocale], false
}

// Locales lists the available languages in sorted order.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.tables))
	for l := range c.tables {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Locale returns the language code of t.
func (t *Table) Locale() string {
	if t == nil {
		return ""
	}
	return t.locale
}

// T returns the message for key, or key itself when unresolved.
func (t *Table) T(key string) string {
	if t == nil {
		return key
	}
	if msg, ok := t.messages[key]; ok {
		return msg
	}
	return key
}

// Tf formats the message for key with args.
func (t *Table) Tf(key string, args ...any) string {
	if t == nil {
		return key
	}
	msg, ok := t.messages[key]
	if !ok {
		return key
	}
	return fmt.Sprintf(msg, args...)
}
