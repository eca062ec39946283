package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

type ErrorKind string

const (
	ErrorKindRequest ErrorKind = "request"
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindStatus  ErrorKind = "status"
	ErrorKindRead    ErrorKind = "read"
	ErrorKindParse   ErrorKind = "parse"
)

// FetchError describes why a feed or article could not be retrieved.
type FetchError struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Timeout() bool {
	return e.Kind == ErrorKindTimeout
}

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
}

func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
	}
}

// Run downloads and parses a single feed within the given timeout.
func (f *Fetcher) Run(ctx context.Context, url string, timeout time.Duration) (*FetchResult, error) {
	data, err := f.get(ctx, url, timeout, "")
	if err != nil {
		return nil, err
	}

	result, err := f.parser.Run(data)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: ErrorKindParse, Err: err}
	}

	return result, nil
}

// FetchArticle downloads an HTML page for content extraction.
func (f *Fetcher) FetchArticle(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	return f.get(ctx, url, timeout, "text/html")
}

func (f *Fetcher) get(ctx context.Context, url string, timeout time.Duration, wantContentType string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: ErrorKindRequest, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(err, ErrorKindRequest), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Kind: ErrorKindStatus, Err: fmt.Errorf("HTTP error: %s", resp.Status)}
	}

	if wantContentType != "" {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), wantContentType) {
			return nil, &FetchError{URL: url, Kind: ErrorKindStatus, Err: fmt.Errorf("unexpected content type: %s", contentType)}
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(err, ErrorKindRead), Err: err}
	}

	return data, nil
}

func classify(err error, fallback ErrorKind) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}

	return fallback
}
