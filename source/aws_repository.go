package source

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// AwsS3Repository is a struct that implements the Repository interface for
// handling configuration data stored in an INI file within an S3 bucket.
type AwsS3Repository struct {
	store
	Name       string     // Name of the configuration source
	BucketName string     // Name of the S3 bucket
	ObjectName string     // Name of the INI file within the S3 bucket
	Region     string     // Optional AWS region; the default chain is used when empty
	Endpoint   string     // Optional S3-compatible endpoint, addressed path style
	AccessKey  string     // Optional static access key; the default chain is used when empty
	SecretKey  string     // Secret for AccessKey
	Client     *s3.Client // S3 client instance

	clientOnce    sync.Once // Ensures client is initialized only once
	clientInitErr error     // Stores error from client initialization
}

// GetName returns the name of the configuration source.
func (a *AwsS3Repository) GetName() string {
	return a.Name
}

func (a *AwsS3Repository) initClient(ctx context.Context) error {
	a.clientOnce.Do(func() {
		if a.Client != nil {
			return
		}
		var opts []func(*config.LoadOptions) error
		if a.Region != "" {
			opts = append(opts, config.WithRegion(a.Region))
		}
		if a.AccessKey != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(a.AccessKey, a.SecretKey, ""),
			))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			a.clientInitErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		a.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if a.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.Endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return a.clientInitErr
}

// Refresh reads the INI file from the S3 bucket and parses it into the buffer.
func (a *AwsS3Repository) Refresh(ctx context.Context) error {
	if err := a.initClient(ctx); err != nil {
		return err
	}

	result, err := a.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.BucketName),
		Key:    aws.String(a.ObjectName),
	})
	if err != nil {
		logrus.Debug("error getting object")
		return fmt.Errorf("get s3://%s/%s: %w", a.BucketName, a.ObjectName, err)
	}
	defer result.Body.Close()

	fileContent, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read s3://%s/%s: %w", a.BucketName, a.ObjectName, err)
	}

	if err := a.swap(fileContent); err != nil {
		logrus.Debug("error parsing object")
		return fmt.Errorf("s3://%s/%s: %w", a.BucketName, a.ObjectName, err)
	}
	return nil
}
