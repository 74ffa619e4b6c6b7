package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/models"
	"github.com/tgillam/jukebox/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8080"

// Provider resolves search queries against the remote media resolver and
// opens audio streams for download.
type Provider interface {
	Search(ctx context.Context, query string) ([]models.RemoteCandidate, error)
	Stream(ctx context.Context, sourceURL string) (io.ReadCloser, int64, error)
}

// ProviderClient implements Provider over the resolver's HTTP API.
//
// The resolver wraps the actual media site APIs; this client only speaks
// its JSON endpoints. Requests are rate limited so bursts of searches do
// not hammer the resolver.
type ProviderClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cap        int
	logger     *log.Logger
}

// NewProviderClient creates a resolver client from config. A nil http
// client falls back to [http.DefaultClient].
func NewProviderClient(cfg shared.ProviderConfig, remoteResults int, client *http.Client, logger *log.Logger) *ProviderClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if remoteResults <= 0 {
		remoteResults = 10
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &ProviderClient{
		baseURL:    cfg.BaseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		cap:        remoteResults,
		logger:     shared.WithLogger(logger, "component", "provider"),
	}
}

// Search queries the resolver and returns at most the configured number of
// candidates, best first.
func (p *ProviderClient) Search(ctx context.Context, query string) ([]models.RemoteCandidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAcquisitionNetwork, err)
	}

	endpoint := fmt.Sprintf("%s/api/search?q=%s", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAcquisitionNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("%w: resolver error (status %d): %s", shared.ErrAcquisitionNetwork, resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("%w: resolver error: status %d", shared.ErrAcquisitionNetwork, resp.StatusCode)
	}

	var body struct {
		Results []models.RemoteCandidate `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := body.Results
	if len(results) > p.cap {
		results = results[:p.cap]
	}
	p.logger.Debug("remote search", "query", query, "results", len(results))
	return results, nil
}

// Stream opens the audio stream behind sourceURL. The returned size is the
// content length, or -1 when unknown. The caller owns the reader.
func (p *ProviderClient) Stream(ctx context.Context, sourceURL string) (io.ReadCloser, int64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAcquisitionNetwork, err)
	}

	endpoint := fmt.Sprintf("%s/api/stream?url=%s", p.baseURL, url.QueryEscape(sourceURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrAcquisitionNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: resolver error: status %d", shared.ErrAcquisitionNetwork, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

var _ Provider = (*ProviderClient)(nil)
