package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sardine-ai/go-remote-ini/source"
	"github.com/sirupsen/logrus"
)

type commandContext struct {
	fileFlag   *string
	sourceFlag *string
}

func newCommandContext(fileFlag, sourceFlag *string) *commandContext {
	return &commandContext{
		fileFlag:   fileFlag,
		sourceFlag: sourceFlag,
	}
}

func (c *commandContext) file() string {
	if c.fileFlag == nil || strings.TrimSpace(*c.fileFlag) == "" {
		return defaultFile
	}
	return strings.TrimSpace(*c.fileFlag)
}

func (c *commandContext) sourceURI() string {
	if c.sourceFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.sourceFlag)
}

// loadBuffer returns a private buffer holding either the --source repository
// or the --file contents.
func (c *commandContext) loadBuffer(ctx context.Context) (*ini.Buffer, error) {
	uri := c.sourceURI()
	if uri == "" {
		b := ini.New()
		if err := b.LoadFile(c.file()); err != nil {
			return nil, err
		}
		logrus.WithField("path", c.file()).Debug("loaded file")
		return b, nil
	}

	repo, err := source.New("cli", uri)
	if err != nil {
		return nil, err
	}
	if err := repo.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	logrus.WithField("source", uri).Debug("loaded repository")
	return repo.GetBuffer().Clone(), nil
}

// outputPath resolves where an edited buffer is written. Without --output the
// loaded file is rewritten, which is only possible for local sources.
func (c *commandContext) outputPath(output string) (string, error) {
	if output = strings.TrimSpace(output); output != "" {
		return output, nil
	}
	uri := c.sourceURI()
	if uri == "" {
		return c.file(), nil
	}
	repo, err := source.New("cli", uri)
	if err != nil {
		return "", err
	}
	if fr, ok := repo.(*source.FileRepository); ok {
		return fr.Path, nil
	}
	return "", errors.New("--output is required when --source is not a local file")
}
