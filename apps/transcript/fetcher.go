package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Source identifies where a video URL points
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceTED     Source = "ted"
	SourceUnknown Source = "unknown"
)

// Transcript extraction is delegated to scraper endpoints that can take
// minutes on long videos, hence the generous default.
const DefaultTimeout = 3000 * time.Second

// FetchError describes a transcript fetch failure with enough context to
// build a user facing message
type FetchError struct {
	URL        string
	Source     Source
	StatusCode int
	Reason     string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcript fetch failed for %s (%s): status %d: %s", e.URL, e.Source, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("transcript fetch failed for %s (%s): %s", e.URL, e.Source, e.Reason)
}

// DetectSource classifies a video URL by its host
func DetectSource(videoURL string) Source {
	parsed, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil || parsed.Host == "" {
		return SourceUnknown
	}
	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	switch {
	case host == "youtube.com" || host == "youtu.be" || strings.HasSuffix(host, ".youtube.com"):
		return SourceYouTube
	case host == "ted.com" || strings.HasSuffix(host, ".ted.com"):
		return SourceTED
	default:
		return SourceUnknown
	}
}

// Fetcher retrieves video transcripts from per-source extraction endpoints
type Fetcher struct {
	endpoints  map[Source]string
	httpClient *http.Client
}

// NewFetcher creates a fetcher with the given endpoint per source
func NewFetcher(endpoints map[Source]string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	Response string `json:"response"`
}

// Fetch posts the video URL to the matching extraction endpoint and
// returns the transcript text
func (f *Fetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	source := DetectSource(videoURL)
	if source == SourceUnknown {
		return "", &FetchError{URL: videoURL, Source: source, Reason: "unsupported video source"}
	}

	endpoint, ok := f.endpoints[source]
	if !ok || endpoint == "" {
		return "", &FetchError{URL: videoURL, Source: source, Reason: "no extraction endpoint configured"}
	}

	body, err := json.Marshal(fetchRequest{URL: videoURL})
	if err != nil {
		return "", &FetchError{URL: videoURL, Source: source, Reason: "failed to encode request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &FetchError{URL: videoURL, Source: source, Reason: "failed to create request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return "", &FetchError{URL: videoURL, Source: source, Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: videoURL, Source: source, StatusCode: resp.StatusCode, Reason: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := strings.TrimSpace(string(respBody))
		if len(reason) > 200 {
			reason = reason[:200]
		}
		return "", &FetchError{URL: videoURL, Source: source, StatusCode: resp.StatusCode, Reason: reason}
	}

	var result fetchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &FetchError{URL: videoURL, Source: source, StatusCode: resp.StatusCode, Reason: "malformed response: " + err.Error()}
	}

	if strings.TrimSpace(result.Response) == "" {
		return "", &FetchError{URL: videoURL, Source: source, StatusCode: resp.StatusCode, Reason: "response contained no transcript"}
	}

	return result.Response, nil
}
