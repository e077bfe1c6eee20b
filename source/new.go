package source

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// New creates a repository for a source URI. Supported forms:
//
//	/etc/app.ini, file:///etc/app.ini
//	https://example.com/app.ini
//	git+https://github.com/org/repo.git//path/app.ini?branch=main
//	s3://bucket/path/app.ini?region=eu-west-1&endpoint=http://localhost:9000
//	gs://bucket/path/app.ini?endpoint=http://localhost:9023/storage/v1/
func New(name, uri string) (Repository, error) {
	if uri == "" {
		return nil, fmt.Errorf("source %q: uri is required", name)
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return newFileRepository(name, uri)
	}

	switch u.Scheme {
	case "file":
		return newFileRepository(name, u.Path)
	case "http", "https":
		return &WebRepository{Name: name, URL: u}, nil
	case "git+https", "git+http", "git+ssh", "git+file":
		return newGitRepository(name, u)
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, fmt.Errorf("source %q: s3 uri needs a bucket and an object key", name)
		}
		q := u.Query()
		return &AwsS3Repository{
			Name:       name,
			BucketName: u.Host,
			ObjectName: strings.TrimPrefix(u.Path, "/"),
			Region:     q.Get("region"),
			Endpoint:   q.Get("endpoint"),
		}, nil
	case "gs":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, fmt.Errorf("source %q: gs uri needs a bucket and an object name", name)
		}
		return &GcpStorageRepository{
			Name:       name,
			BucketName: u.Host,
			ObjectName: strings.TrimPrefix(u.Path, "/"),
			Endpoint:   u.Query().Get("endpoint"),
		}, nil
	default:
		return nil, fmt.Errorf("source %q: unsupported scheme %q", name, u.Scheme)
	}
}

func newFileRepository(name, path string) (Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}
	return &FileRepository{Name: name, Path: absPath}, nil
}

// newGitRepository splits "repo.git//path/in/repo" into the clone URL and the
// file path.
func newGitRepository(name string, u *url.URL) (Repository, error) {
	repoPath, filePath, ok := strings.Cut(u.Path, "//")
	if !ok || filePath == "" {
		return nil, fmt.Errorf("source %q: git uri needs the file path after '//'", name)
	}
	branch := u.Query().Get("branch")

	cloneURL := *u
	cloneURL.Scheme = strings.TrimPrefix(u.Scheme, "git+")
	cloneURL.Path = repoPath
	cloneURL.RawPath = ""
	cloneURL.RawQuery = ""
	if cloneURL.Scheme == "file" {
		cloneURL = url.URL{Path: repoPath}
	}

	return &GitRepository{
		Name:   name,
		URL:    &cloneURL,
		Path:   filePath,
		Branch: branch,
	}, nil
}
