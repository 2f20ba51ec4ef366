package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/mediaguard"
)

// Compile-time interface check
var _ mediaguard.StorageProvider = (*RESTProvider)(nil)

// RESTProvider implements mediaguard.StorageProvider for an HTTP object API
// that accepts PUT {endpoint}/{key} and DELETE {endpoint}/{key}. Requests
// carry a bearer token or basic credentials.
type RESTProvider struct {
	cfg    mediaguard.StorageConfig
	logger *slog.Logger
	http   *http.Client
	now    func() time.Time
	setup  func() (string, error)
}

// NewRESTProvider creates an HTTP object provider. A nil client selects
// http.DefaultClient.
func NewRESTProvider(cfg mediaguard.StorageConfig, logger *slog.Logger, client *http.Client) *RESTProvider {
	if client == nil {
		client = http.DefaultClient
	}
	p := &RESTProvider{
		cfg:    cfg,
		logger: logger,
		http:   client,
		now:    time.Now,
	}
	p.setup = sync.OnceValues(p.checkConfig)
	return p
}

// Name returns "rest".
func (p *RESTProvider) Name() string {
	return mediaguard.ProviderREST
}

// Ready reports any configuration error.
func (p *RESTProvider) Ready() error {
	_, err := p.setup()
	return err
}

// checkConfig validates the endpoint and credentials and returns the
// normalized endpoint.
func (p *RESTProvider) checkConfig() (string, error) {
	cfg := p.cfg
	if cfg.RESTEndpoint == "" {
		return "", mediaguard.Config("STORAGE_REST_ENDPOINT is required")
	}
	u, err := url.Parse(cfg.RESTEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", mediaguard.Config("STORAGE_REST_ENDPOINT must be an absolute http(s) URL")
	}
	if cfg.RESTToken == "" && (cfg.RESTUsername == "" || cfg.RESTPassword == "") {
		return "", mediaguard.Config("STORAGE_REST_TOKEN or STORAGE_REST_USERNAME and STORAGE_REST_PASSWORD are required")
	}

	endpoint := strings.TrimRight(cfg.RESTEndpoint, "/")
	p.logger.Info("initialized REST storage client", slog.String("endpoint", endpoint))
	return endpoint, nil
}

// Upload PUTs data to "{endpoint}/{folder}/{unix}-{token}{ext}".
func (p *RESTProvider) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	endpoint, err := p.setup()
	if err != nil {
		return "", err
	}

	key := objectKey(folder, contentType, p.now())
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", mediaguard.Internal("building upload request", err)
	}
	req.Header.Set("Content-Type", contentType)

	status, err := p.do(req)
	if err != nil {
		return "", mediaguard.Unavailable("failed to upload to object API", err)
	}
	if status < 200 || status > 299 {
		return "", mediaguard.Unavailable("failed to upload to object API", fmt.Errorf("unexpected status %d", status))
	}

	return joinURL(p.baseURL(endpoint), key), nil
}

// Delete issues DELETE for the object rawURL points to. A 404 counts as
// deleted.
func (p *RESTProvider) Delete(ctx context.Context, rawURL string) error {
	endpoint, err := p.setup()
	if err != nil {
		return err
	}

	key, err := keyFromURL(p.baseURL(endpoint), rawURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint+"/"+key, nil)
	if err != nil {
		return mediaguard.Internal("building delete request", err)
	}

	status, err := p.do(req)
	if err != nil {
		return mediaguard.Unavailable("failed to delete from object API", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil
	case status < 200 || status > 299:
		return mediaguard.Unavailable("failed to delete from object API", fmt.Errorf("unexpected status %d", status))
	}
	return nil
}

// do sends req with credentials attached and returns the response status.
func (p *RESTProvider) do(req *http.Request) (int, error) {
	if p.cfg.RESTToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.RESTToken)
	} else {
		req.SetBasicAuth(p.cfg.RESTUsername, p.cfg.RESTPassword)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (p *RESTProvider) baseURL(endpoint string) string {
	if p.cfg.RESTPublicURL != "" {
		return strings.TrimRight(p.cfg.RESTPublicURL, "/")
	}
	return endpoint
}
