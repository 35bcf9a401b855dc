// Package remote queries the exoplanet archive's tabular sync API. One GET
// per call, bounded timeout, no retries: retry and fallback belong to the
// cascade, not this layer.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/astrosynth/atlas/internal/clock"
	"github.com/astrosynth/atlas/internal/planet/domain"
	"go.uber.org/zap"
)

const (
	defaultTable     = "ps"
	defaultUserAgent = "atlas/0.1"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	clock      clock.Clock
	log        *zap.Logger
}

func New(cfg Config, clk clock.Clock, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		clock: clk,
		log:   log.Named("remote"),
	}
}

// FetchPage retrieves up to limit records starting at offset. limit <= 0
// requests the whole dataset.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) ([]domain.Planet, error) {
	query := Query{
		Table:   defaultTable,
		Columns: domain.ArchiveColumns,
		Where:   []string{"default_flag = 1"},
		OrderBy: []string{"disc_year DESC"},
		Limit:   limit,
		Offset:  offset,
	}

	params := url.Values{}
	params.Set("query", query.Build())
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrRemoteParse, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteParse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRemoteParse, resp.StatusCode, body)
	}

	var records []domain.ArchiveRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrRemoteParse, err)
	}

	planets := domain.PlanetsFromArchive(records, c.clock.Now())
	if len(planets) == 0 {
		return nil, fmt.Errorf("%w: empty result set", domain.ErrRemoteParse)
	}

	c.log.Info("remote page fetched",
		zap.Int("records", len(planets)),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
		zap.Int64("duration_ms", time.Since(started).Milliseconds()),
	)
	return planets, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
