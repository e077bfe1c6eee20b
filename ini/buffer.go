package ini

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Scalar is the set of Go types a value can be read as with Get.
type Scalar interface {
	int | float64 | bool | string
}

// A Buffer holds the sections of an INI file in memory. The zero value is an
// empty buffer. Buffers are safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	sections map[string]*section
}

type section struct {
	name       string
	properties map[string]Value
}

func newSection(name string) *section {
	return &section{name: name, properties: make(map[string]Value)}
}

func (s *section) clone() *section {
	c := newSection(s.name)
	for k, v := range s.properties {
		c.properties[k] = v
	}
	return c
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{sections: make(map[string]*section)}
}

// Clear removes every section.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sections = make(map[string]*section)
}

// Len returns the number of sections.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sections)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := New()
	if b == nil {
		return c
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for name, s := range b.sections {
		c.sections[name] = s.clone()
	}
	return c
}

// Sections returns the section names in sorted order.
func (b *Buffer) Sections() []string {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.sections))
	for name := range b.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the keys of a section in sorted order.
func (b *Buffer) Keys(sectionName string) ([]string, error) {
	if b == nil {
		return nil, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sections[sectionName]
	if !ok {
		return nil, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	return sortedKeys(s), nil
}

func sortedKeys(s *section) []string {
	keys := make([]string, 0, len(s.properties))
	for k := range s.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasSection reports whether the buffer contains the named section.
func (b *Buffer) HasSection(sectionName string) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.sections[sectionName]
	return ok
}

// HasKey reports whether the section contains the key.
func (b *Buffer) HasKey(sectionName, key string) bool {
	_, err := b.Lookup(sectionName, key)
	return err == nil
}

// Lookup returns the value stored under section and key.
func (b *Buffer) Lookup(sectionName, key string) (Value, error) {
	if b == nil {
		return Value{}, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sections[sectionName]
	if !ok {
		return Value{}, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	v, ok := s.properties[key]
	if !ok {
		return Value{}, fmt.Errorf("section %q: key %q: %w", sectionName, key, ErrKeyNotFound)
	}
	return v, nil
}

// GetInt returns the value under section and key as an int.
func (b *Buffer) GetInt(sectionName, key string) (int, error) {
	v, err := b.Lookup(sectionName, key)
	if err != nil {
		return 0, err
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, fmt.Errorf("section %q: key %q: %w", sectionName, key, err)
	}
	return n, nil
}

// GetFloat returns the value under section and key as a float64.
func (b *Buffer) GetFloat(sectionName, key string) (float64, error) {
	v, err := b.Lookup(sectionName, key)
	if err != nil {
		return 0, err
	}
	f, err := v.AsFloat()
	if err != nil {
		return 0, fmt.Errorf("section %q: key %q: %w", sectionName, key, err)
	}
	return f, nil
}

// GetBool returns the value under section and key as a bool.
func (b *Buffer) GetBool(sectionName, key string) (bool, error) {
	v, err := b.Lookup(sectionName, key)
	if err != nil {
		return false, err
	}
	t, err := v.AsBool()
	if err != nil {
		return false, fmt.Errorf("section %q: key %q: %w", sectionName, key, err)
	}
	return t, nil
}

// GetString returns the value under section and key as a string. A key with
// an empty value reads as "" rather than failing with ErrTypeMismatch.
func (b *Buffer) GetString(sectionName, key string) (string, error) {
	v, err := b.Lookup(sectionName, key)
	if err != nil {
		return "", err
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("section %q: key %q: %w", sectionName, key, err)
	}
	return s, nil
}

// Get returns the value under section and key converted to T.
func Get[T Scalar](b *Buffer, sectionName, key string) (T, error) {
	var zero T
	var (
		out interface{}
		err error
	)
	switch any(zero).(type) {
	case int:
		out, err = b.GetInt(sectionName, key)
	case float64:
		out, err = b.GetFloat(sectionName, key)
	case bool:
		out, err = b.GetBool(sectionName, key)
	case string:
		out, err = b.GetString(sectionName, key)
	default:
		return zero, fmt.Errorf("%T: %w", zero, ErrUnsupportedType)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// AddValue stores value under section and key, creating the section when it
// does not exist and replacing any previous value. Supported value types are
// the integer types, float32, float64, bool and string.
func (b *Buffer) AddValue(sectionName, key string, value interface{}) error {
	if err := validateSectionName(sectionName); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	raw, err := stringify(value)
	if err != nil {
		return fmt.Errorf("section %q: key %q: %w", sectionName, key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section(sectionName).properties[key] = newValue(raw)
	return nil
}

// AddEmptySection adds a section without properties. An existing section of
// the same name is replaced, dropping its properties.
func (b *Buffer) AddEmptySection(sectionName string) error {
	if err := validateSectionName(sectionName); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sections == nil {
		b.sections = make(map[string]*section)
	}
	b.sections[sectionName] = newSection(sectionName)
	return nil
}

// EraseSection deletes a section and all of its properties.
func (b *Buffer) EraseSection(sectionName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sections[sectionName]; !ok {
		return fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	delete(b.sections, sectionName)
	return nil
}

// EraseProperty deletes a single key from a section.
func (b *Buffer) EraseProperty(sectionName, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sections[sectionName]
	if !ok {
		return fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	if _, ok := s.properties[key]; !ok {
		return fmt.Errorf("section %q: key %q: %w", sectionName, key, ErrKeyNotFound)
	}
	delete(s.properties, key)
	return nil
}

// Map returns the buffer as nested maps of section to key to typed value,
// suitable for encoding to other formats.
func (b *Buffer) Map() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	if b == nil {
		return out
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for name, s := range b.sections {
		props := make(map[string]interface{}, len(s.properties))
		for k, v := range s.properties {
			props[k] = v.Interface()
		}
		out[name] = props
	}
	return out
}

// SectionMap returns the typed values of a single section.
func (b *Buffer) SectionMap(sectionName string) (map[string]interface{}, error) {
	if b == nil {
		return nil, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sections[sectionName]
	if !ok {
		return nil, fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	props := make(map[string]interface{}, len(s.properties))
	for k, v := range s.properties {
		props[k] = v.Interface()
	}
	return props, nil
}

// replace stores every section of src in b, dropping any section of the same
// name. Callers hold b.mu.
func (b *Buffer) replace(src map[string]*section) {
	if b.sections == nil {
		b.sections = make(map[string]*section, len(src))
	}
	for name, s := range src {
		b.sections[name] = s
	}
}

// section returns the named section, creating it if needed. Callers hold b.mu.
func (b *Buffer) section(name string) *section {
	if b.sections == nil {
		b.sections = make(map[string]*section)
	}
	s, ok := b.sections[name]
	if !ok {
		s = newSection(name)
		b.sections[name] = s
	}
	return s
}

func validateSectionName(name string) error {
	if strings.TrimSpace(name) != name || name == "" {
		return fmt.Errorf("section %q: must be non-empty without surrounding whitespace: %w", name, ErrInvalidName)
	}
	if strings.ContainsAny(name, "[];#\r\n") {
		return fmt.Errorf("section %q: must not contain brackets, comment characters or line breaks: %w", name, ErrInvalidName)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty: %w", ErrInvalidName)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("key %q: must not contain whitespace: %w", key, ErrInvalidName)
	}
	if strings.ContainsAny(key, "=;#[") {
		return fmt.Errorf("key %q: must not contain '=', '[' or comment characters: %w", key, ErrInvalidName)
	}
	return nil
}
