package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobsportal/internal/domain"

	"github.com/tidwall/gjson"
)

const (
	defaultFetchTimeout = 20 * time.Second
	maxResponseBytes    = 8 << 20
	errorBodySnippetLen = 256
	userAgent           = "jobsportal/1.0"
)

// Fetcher reads job pages from the remote API: GET <base>?page=<n>, answering
// a JSON object whose "results" field is the page's job list.
type Fetcher struct {
	baseURL *url.URL
	client  *http.Client
	log     *slog.Logger
}

func NewFetcher(baseURL string, timeout time.Duration, log *slog.Logger) (*Fetcher, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jobs API URL is empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &Fetcher{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

func (f *Fetcher) pageURL(page int) string {
	u := *f.baseURL

	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()

	return u.String()
}

// FetchPage returns the jobs of one page. Failures are *NetworkError or
// *MalformedResponseError. Records without a usable id are skipped.
func (f *Fetcher) FetchPage(ctx context.Context, page int) ([]domain.Job, error) {
	reqURL := f.pageURL(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &NetworkError{Page: page, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Page: page, Err: fmt.Errorf("http GET: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", reqURL)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Page: page, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &NetworkError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("jobs API returned %d: %s", resp.StatusCode, bodySnippet(body)),
		}
	}

	jobs, err := f.parsePage(ctx, page, body)
	if err != nil {
		return nil, err
	}

	f.log.DebugContext(ctx, "Jobs page is fetched",
		"page", page,
		"jobCount", len(jobs),
		"elapsed", time.Since(start))

	return jobs, nil
}

func (f *Fetcher) parsePage(ctx context.Context, page int, body []byte) ([]domain.Job, error) {
	if !gjson.ValidBytes(body) {
		return nil, &MalformedResponseError{Page: page, Reason: "body is not valid JSON"}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &MalformedResponseError{Page: page, Reason: "body is not a JSON object"}
	}

	results := root.Get("results")
	if !results.Exists() {
		return nil, &MalformedResponseError{Page: page, Reason: "results field is missing"}
	}

	if !results.IsArray() {
		return nil, &MalformedResponseError{Page: page, Reason: "results field is not an array"}
	}

	var (
		jobs    []domain.Job
		skipped int
		errs    []error
	)

	results.ForEach(func(_, value gjson.Result) bool {
		job, err := domain.JobFromResult(value)
		if err != nil {
			skipped++
			errs = append(errs, err)

			return true
		}

		jobs = append(jobs, job)

		return true
	})

	if skipped > 0 {
		f.log.WarnContext(ctx, "Skipping job records without usable id",
			"error", errors.Join(errs...),
			"page", page,
			"skipped", skipped,
			"kept", len(jobs))
	}

	return jobs, nil
}

func bodySnippet(body []byte) string {
	snippet := strings.TrimSpace(string(body))

	runes := []rune(snippet)
	if len(runes) > errorBodySnippetLen {
		return string(runes[:errorBodySnippetLen]) + "..."
	}

	return snippet
}
