// Package option implements the typed, validated option table highlighter
// factories read their configuration from: tab stop width, which faces to
// use, which regex to search for, and so on.
package option

import (
	"fmt"
	"regexp"
)

// Type identifies the data type a Setting holds.
type Type uint8

const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeStringList
	TypeRegex
	TypeLineFlagList
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeStringList:
		return "string-list"
	case TypeRegex:
		return "regex"
	case TypeLineFlagList:
		return "line-flag-list"
	default:
		return "unknown"
	}
}

// LineFlag attaches a literal gutter marker to a specific buffer line, the
// value type of options like flag_lines' backing option. Line is a plain
// int rather than unit.LineCount so this package carries no dependency on
// internal/unit; callers convert at the boundary.
type LineFlag struct {
	Line int
	Text string
}

// Setting defines one named, typed, validated configuration value.
type Setting struct {
	Name        string
	Type        Type
	Default     any
	Description string
	Minimum     *int
	Maximum     *int
	Pattern     string

	compiled *regexp.Regexp
}

// Validate checks value against s's type and constraints.
func (s *Setting) Validate(value any) error {
	if err := s.validateType(value); err != nil {
		return err
	}
	if s.Type == TypeInt {
		if err := s.validateRange(value); err != nil {
			return err
		}
	}
	if s.Type == TypeString && s.Pattern != "" {
		if err := s.validatePattern(value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Setting) validateType(value any) error {
	switch s.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("option %s: expected string, got %T", s.Name, value)
		}
	case TypeInt:
		if _, ok := value.(int); !ok {
			return fmt.Errorf("option %s: expected integer, got %T", s.Name, value)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("option %s: expected boolean, got %T", s.Name, value)
		}
	case TypeStringList:
		if _, ok := value.([]string); !ok {
			return fmt.Errorf("option %s: expected string list, got %T", s.Name, value)
		}
	case TypeRegex:
		if _, ok := value.(*regexp.Regexp); !ok {
			return fmt.Errorf("option %s: expected compiled regex, got %T", s.Name, value)
		}
	case TypeLineFlagList:
		if _, ok := value.([]LineFlag); !ok {
			return fmt.Errorf("option %s: expected line flag list, got %T", s.Name, value)
		}
	}
	return nil
}

func (s *Setting) validateRange(value any) error {
	v, ok := value.(int)
	if !ok {
		return nil
	}
	if s.Minimum != nil && v < *s.Minimum {
		return fmt.Errorf("option %s: value %d is less than minimum %d", s.Name, v, *s.Minimum)
	}
	if s.Maximum != nil && v > *s.Maximum {
		return fmt.Errorf("option %s: value %d is greater than maximum %d", s.Name, v, *s.Maximum)
	}
	return nil
}

func (s *Setting) validatePattern(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if s.compiled == nil {
		var err error
		s.compiled, err = regexp.Compile(s.Pattern)
		if err != nil {
			return fmt.Errorf("option %s: invalid pattern: %w", s.Name, err)
		}
	}
	if !s.compiled.MatchString(str) {
		return fmt.Errorf("option %s: value %q does not match pattern %s", s.Name, str, s.Pattern)
	}
	return nil
}

// MinValue returns a pointer suitable for Setting.Minimum.
func MinValue(v int) *int { return &v }

// MaxValue returns a pointer suitable for Setting.Maximum.
func MaxValue(v int) *int { return &v }

// Table holds the current value of every option a Context exposes,
// validated against a registry of Settings at Set time.
type Table struct {
	settings map[string]*Setting
	values   map[string]any
}

// NewTable creates an empty option table.
func NewTable() *Table {
	return &Table{settings: map[string]*Setting{}, values: map[string]any{}}
}

// Register adds a Setting definition and seeds the table with its default
// value.
func (t *Table) Register(s Setting) {
	cp := s
	t.settings[s.Name] = &cp
	t.values[s.Name] = s.Default
}

// Set validates and stores value for the named option.
func (t *Table) Set(name string, value any) error {
	s, ok := t.settings[name]
	if !ok {
		return fmt.Errorf("option %s: not registered", name)
	}
	if err := s.Validate(value); err != nil {
		return err
	}
	t.values[name] = value
	return nil
}

// Has reports whether name is registered.
func (t *Table) Has(name string) bool {
	_, ok := t.settings[name]
	return ok
}

func (t *Table) get(name string) (any, error) {
	if !t.Has(name) {
		return nil, fmt.Errorf("option %s: not registered", name)
	}
	return t.values[name], nil
}

// Int returns the named option as an int.
func (t *Table) Int(name string) (int, error) {
	v, err := t.get(name)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("option %s: not an integer", name)
	}
	return i, nil
}

// String returns the named option as a string.
func (t *Table) String(name string) (string, error) {
	v, err := t.get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %s: not a string", name)
	}
	return s, nil
}

// Bool returns the named option as a bool.
func (t *Table) Bool(name string) (bool, error) {
	v, err := t.get(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("option %s: not a boolean", name)
	}
	return b, nil
}

// StringList returns the named option as a []string.
func (t *Table) StringList(name string) ([]string, error) {
	v, err := t.get(name)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("option %s: not a string list", name)
	}
	return s, nil
}

// Regex returns the named option as a compiled *regexp.Regexp.
func (t *Table) Regex(name string) (*regexp.Regexp, error) {
	v, err := t.get(name)
	if err != nil {
		return nil, err
	}
	r, ok := v.(*regexp.Regexp)
	if !ok {
		return nil, fmt.Errorf("option %s: not a compiled regex", name)
	}
	return r, nil
}

// LineFlagList returns the named option as a []LineFlag.
func (t *Table) LineFlagList(name string) ([]LineFlag, error) {
	v, err := t.get(name)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]LineFlag)
	if !ok {
		return nil, fmt.Errorf("option %s: not a line flag list", name)
	}
	return l, nil
}

// DefaultTable returns a table seeded with two options: tabstop and
// show_whitespaces.
func DefaultTable() *Table {
	t := NewTable()
	t.Register(Setting{Name: "tabstop", Type: TypeInt, Default: 8, Minimum: MinValue(1), Maximum: MaxValue(64),
		Description: "number of columns a tab character expands to"})
	t.Register(Setting{Name: "show_whitespaces", Type: TypeBool, Default: false,
		Description: "whether to render a glyph in place of spaces, tabs, and trailing newlines"})
	return t
}
