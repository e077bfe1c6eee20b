package ini

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

const headerTitle = "# Configuration File"

// now is replaced in tests.
var now = time.Now

// WriteTo writes the buffer as an INI file preceded by a header comment
// carrying the current date and time.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n# %s\n\n", headerTitle, now().Format("2006/01/02 15:04:05"))
	b.encode(&buf)
	return buf.WriteTo(w)
}

// MarshalText implements encoding.TextMarshaler. Unlike WriteTo it emits no
// header.
func (b *Buffer) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	b.encode(&buf)
	return buf.Bytes(), nil
}

// EncodeSection writes a single section in INI form.
func (b *Buffer) EncodeSection(w io.Writer, sectionName string) error {
	b.mu.RLock()
	s, ok := b.sections[sectionName]
	if !ok {
		b.mu.RUnlock()
		return fmt.Errorf("section %q: %w", sectionName, ErrSectionNotFound)
	}
	bw := bufio.NewWriter(w)
	writeSection(bw, s)
	b.mu.RUnlock()
	return bw.Flush()
}

func (b *Buffer) encode(w io.Writer) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, name := range b.sortedSectionNames() {
		writeSection(w, b.sections[name])
	}
}

func (b *Buffer) sortedSectionNames() []string {
	names := make([]string, 0, len(b.sections))
	for name := range b.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeSection(w io.Writer, s *section) {
	fmt.Fprintf(w, "[%s]\n", s.name)
	for _, k := range sortedKeys(s) {
		fmt.Fprintf(w, "%s = %s\n", k, s.properties[k].raw)
	}
	fmt.Fprintln(w)
}

// WriteFile writes the buffer to path. The directory must already exist.
// Concurrent writers are serialized through an exclusive lock on
// path+".lock", and the file is replaced atomically.
func (b *Buffer) WriteFile(path string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("can not open file %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if _, err := b.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
