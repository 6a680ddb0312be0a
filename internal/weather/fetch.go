package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sweeney/airmonitor/internal/errcode"
)

// EmptyBody is what a failed fetch is equivalent to: an object with no data.
const EmptyBody = "{}"

// maxBody bounds how much of a response is read.
const maxBody = 64 << 10

// Fetcher issues one GET per call. There are no retries; the caller blocks
// for the full round trip.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch returns the response body of rawURL. Transport errors, non-2xx
// statuses and bodies over maxBody yield an error wrapping
// errcode.FetchFailure, which callers treat as absent data.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errcode.New(errcode.FetchFailure, "fetch", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("weather request failed", "error", err)
		return "", errcode.New(errcode.FetchFailure, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("weather request rejected", "status", resp.StatusCode)
		return "", errcode.New(errcode.FetchFailure, "fetch", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", errcode.New(errcode.FetchFailure, "fetch", fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxBody {
		f.logger.Warn("weather response too large", "limit", maxBody)
		return "", errcode.New(errcode.FetchFailure, "fetch", fmt.Errorf("body exceeds %d bytes", maxBody))
	}
	f.logger.Debug("weather fetched", "bytes", len(body))
	return string(body), nil
}
