package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sardine-ai/go-remote-ini/source"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Client struct {
	Repository      source.Repository
	RefreshInterval time.Duration
	cancel          context.CancelFunc
}

// NewClient creates a new Client with the provided context, repository,
// and refresh interval. The repository is refreshed once before NewClient
// returns; if that fails the error is returned and no background refresh is
// started. Otherwise a goroutine refreshes the repository every
// refreshInterval until Close is called or ctx is canceled.
func NewClient(ctx context.Context, repository source.Repository, refreshInterval time.Duration) (*Client, error) {
	if refreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", refreshInterval)
	}
	if err := repository.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("initial refresh of %q: %w", repository.GetName(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	client := &Client{
		Repository:      repository,
		RefreshInterval: refreshInterval,
		cancel:          cancel,
	}
	go refresh(ctx, client)
	return client, nil
}

// refresh periodically refreshes the configuration data from the repository
// until ctx is canceled.
func refresh(ctx context.Context, client *Client) {
	ticker := time.NewTicker(client.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := client.Repository.Refresh(ctx)
			if err != nil && ctx.Err() == nil {
				logrus.WithError(err).WithField("repository", client.Repository.GetName()).Error("error refreshing repository")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the background refresh goroutine of the Client.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// GetInt retrieves an integer value from the current configuration.
func (c *Client) GetInt(section, key string) (int, error) {
	return c.Repository.GetBuffer().GetInt(section, key)
}

// GetFloat retrieves a float value from the current configuration.
func (c *Client) GetFloat(section, key string) (float64, error) {
	return c.Repository.GetBuffer().GetFloat(section, key)
}

// GetBool retrieves a boolean value from the current configuration.
func (c *Client) GetBool(section, key string) (bool, error) {
	return c.Repository.GetBuffer().GetBool(section, key)
}

// GetString retrieves a string value from the current configuration.
func (c *Client) GetString(section, key string) (string, error) {
	return c.Repository.GetBuffer().GetString(section, key)
}

// GetConfig decodes a whole section into the value pointed to by data, which
// is typically a struct with yaml field tags. Keys are matched the same way
// yaml.v3 matches mapping keys.
func (c *Client) GetConfig(section string, data interface{}) error {
	values, err := c.Repository.GetBuffer().SectionMap(section)
	if err != nil {
		return err
	}
	marshal, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(marshal, data); err != nil {
		return fmt.Errorf("decode section %q: %w", section, err)
	}
	return nil
}

// Snapshot returns a copy of the current configuration that the caller may
// modify freely.
func (c *Client) Snapshot() *ini.Buffer {
	return c.Repository.GetBuffer().Clone()
}
