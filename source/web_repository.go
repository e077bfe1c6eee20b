package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// WebRepository is a struct that implements the Repository interface for
// handling configuration data fetched from a remote HTTP endpoint (web URL).
type WebRepository struct {
	store
	Name       string       // Name of the configuration source
	URL        *url.URL     // URL representing the remote HTTP endpoint (web URL)
	APIKey     string       // Optional API key for X-API-Key header authentication
	HTTPClient *http.Client // Client used for requests; http.DefaultClient when nil
}

// GetName returns the name of the configuration source.
func (w *WebRepository) GetName() string {
	return w.Name
}

// Refresh fetches the INI file from the remote HTTP endpoint and parses it
// into the buffer.
func (w *WebRepository) Refresh(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL.String(), nil)
	if err != nil {
		logrus.Debug("error creating request")
		return err
	}
	if w.APIKey != "" {
		request.Header.Set("X-API-Key", w.APIKey)
	}

	httpClient := w.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(request)
	if err != nil {
		logrus.Debug("error doing request")
		return err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logrus.WithError(err).Debug("error closing response body")
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %s", w.URL.Redacted(), resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.Debug("error reading response body")
		return err
	}

	if err := w.swap(data); err != nil {
		logrus.Debug("error parsing response body")
		return fmt.Errorf("%s: %w", w.URL.Redacted(), err)
	}
	return nil
}
