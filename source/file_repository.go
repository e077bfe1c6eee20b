package source

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// FileRepository is a struct that implements the Repository interface for
// handling configuration data stored in a local INI file.
type FileRepository struct {
	store
	Name string // Name of the configuration source
	Path string // File path of the INI configuration file
}

// GetName returns the name of the configuration source.
func (f *FileRepository) GetName() string {
	return f.Name
}

// Refresh reads the INI file and parses it into the buffer.
func (f *FileRepository) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		logrus.WithError(err).WithField("path", f.Path).Debug("error reading file")
		return fmt.Errorf("read %s: %w", f.Path, err)
	}
	if err := f.swap(data); err != nil {
		logrus.WithError(err).WithField("path", f.Path).Debug("error parsing file")
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}
