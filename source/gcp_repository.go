package source

import (
	"context"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GcpStorageRepository is a struct that implements the Repository interface for
// handling configuration data stored in an INI file within a GCS bucket.
type GcpStorageRepository struct {
	store
	Name       string          // Name of the configuration source
	BucketName string          // Name of the GCS bucket
	ObjectName string          // Name of the INI file within the GCS bucket
	Endpoint   string          // Optional storage endpoint; requests are unauthenticated when set
	Client     *storage.Client // GCS client instance

	clientOnce    sync.Once // Ensures client is initialized only once
	clientInitErr error     // Stores error from client initialization
}

// GetName returns the name of the configuration source.
func (g *GcpStorageRepository) GetName() string {
	return g.Name
}

// initClient builds the client detached from the refresh context, which may
// be canceled while the client lives on.
func (g *GcpStorageRepository) initClient() error {
	g.clientOnce.Do(func() {
		if g.Client != nil {
			return
		}
		var opts []option.ClientOption
		if g.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(g.Endpoint), option.WithoutAuthentication())
		}
		g.Client, g.clientInitErr = storage.NewClient(context.Background(), opts...)
	})
	return g.clientInitErr
}

// Refresh reads the INI file from the GCS bucket and parses it into the buffer.
func (g *GcpStorageRepository) Refresh(ctx context.Context) error {
	if err := g.initClient(); err != nil {
		return err
	}

	reader, err := g.Client.Bucket(g.BucketName).Object(g.ObjectName).NewReader(ctx)
	if err != nil {
		logrus.Debug("error creating reader")
		return fmt.Errorf("open gs://%s/%s: %w", g.BucketName, g.ObjectName, err)
	}
	defer reader.Close()

	fileContent, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read gs://%s/%s: %w", g.BucketName, g.ObjectName, err)
	}

	if err := g.swap(fileContent); err != nil {
		logrus.Debug("error parsing object")
		return fmt.Errorf("gs://%s/%s: %w", g.BucketName, g.ObjectName, err)
	}
	return nil
}
