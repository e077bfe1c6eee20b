package ini

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Parse reads INI text into a new buffer.
func Parse(r io.Reader) (*Buffer, error) {
	b := New()
	if err := b.Load(r); err != nil {
		return nil, err
	}
	return b, nil
}

// Load parses INI text into the buffer. A section header replaces any earlier
// section of the same name, in the input or already in the buffer; sections
// the input does not name are kept. If the input is malformed the buffer is
// left unchanged.
func (b *Buffer) Load(r io.Reader) error {
	parsed, err := parse(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replace(parsed)
	return nil
}

// LoadFile parses the named file into the buffer like Load.
func (b *Buffer) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ini file: %w", err)
	}
	defer f.Close()
	if err := b.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The buffer is replaced
// by the parsed content.
func (b *Buffer) UnmarshalText(text []byte) error {
	parsed, err := parse(bytes.NewReader(text))
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sections = parsed
	return nil
}

// MaxLineLength is the longest line, in bytes, the parser accepts.
const MaxLineLength = 16 << 20

func parse(r io.Reader) (map[string]*section, error) {
	sections := make(map[string]*section)
	var current *section
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	lineno := 1
	for ; s.Scan(); lineno++ {
		line := cleanLine(s.Text())
		if line == "" {
			continue
		}
		switch {
		case line[0] == '[':
			end := strings.IndexByte(line, ']')
			if end == -1 {
				return nil, &SyntaxError{Line: lineno, Msg: "missing section closing bracket"}
			}
			name := strings.TrimSpace(line[1:end])
			if name == "" {
				return nil, &SyntaxError{Line: lineno, Msg: "section name missing"}
			}
			if strings.ContainsRune(name, '[') {
				return nil, &SyntaxError{Line: lineno, Msg: "unexpected brackets in section name"}
			}
			current = newSection(name)
			sections[name] = current
		case strings.IndexByte(line, '=') >= 0:
			if current == nil {
				return nil, &SyntaxError{Line: lineno, Msg: "property must belong to a section"}
			}
			i := strings.IndexByte(line, '=')
			key := strings.TrimSpace(line[:i])
			if key == "" {
				return nil, &SyntaxError{Line: lineno, Msg: "key missing"}
			}
			if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
				return nil, &SyntaxError{Line: lineno, Msg: fmt.Sprintf("key %q contains whitespace", key)}
			}
			current.properties[key] = newValue(line[i+1:])
		default:
			return nil, &SyntaxError{Line: lineno, Msg: fmt.Sprintf("%q is neither a section nor a property", line)}
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("parse ini file: line %d: %w", lineno, err)
	}
	return sections, nil
}

// cleanLine strips the trailing comment and surrounding whitespace.
func cleanLine(line string) string {
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
