package source

import (
	"bytes"
	"context"
	"sync"

	"github.com/sardine-ai/go-remote-ini/ini"
)

// Repository is a source of INI configuration that can be refreshed.
type Repository interface {
	// GetName returns the name of the configuration source.
	GetName() string
	// GetBuffer returns the most recently loaded buffer. The buffer is shared
	// with other readers and must not be modified; Clone it first.
	GetBuffer() *ini.Buffer
	// GetRawData returns the INI text the buffer was parsed from.
	GetRawData() []byte
	// Refresh fetches and parses the configuration again. On error the
	// previous buffer is kept.
	Refresh(ctx context.Context) error
}

// store holds the parsed state shared by every repository implementation.
type store struct {
	sync.RWMutex
	buffer  *ini.Buffer
	rawData []byte
}

// GetBuffer returns the configuration buffer. It is empty until the first
// successful refresh.
func (s *store) GetBuffer() *ini.Buffer {
	s.RLock()
	defer s.RUnlock()
	if s.buffer == nil {
		return ini.New()
	}
	return s.buffer
}

// GetRawData returns the raw data of the INI configuration file.
func (s *store) GetRawData() []byte {
	s.RLock()
	defer s.RUnlock()
	return s.rawData
}

// swap parses data outside the lock so a malformed file never replaces the
// current state, then swaps buffer and raw data together.
func (s *store) swap(data []byte) error {
	buffer, err := ini.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.Lock()
	s.buffer = buffer
	s.rawData = data
	s.Unlock()
	return nil
}
