package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url  string
		want Source
	}{
		{"https://www.youtube.com/watch?v=abc123", SourceYouTube},
		{"https://youtube.com/watch?v=abc123", SourceYouTube},
		{"https://youtu.be/abc123", SourceYouTube},
		{"https://m.youtube.com/watch?v=abc123", SourceYouTube},
		{"https://www.ted.com/talks/some_talk", SourceTED},
		{"https://ted.com/talks/some_talk", SourceTED},
		{"https://embed.ted.com/talks/some_talk", SourceTED},
		{"https://vimeo.com/12345", SourceUnknown},
		{"https://notyoutube.com/watch", SourceUnknown},
		{"not a url at all", SourceUnknown},
		{"", SourceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DetectSource(tt.url); got != tt.want {
				t.Fatalf("DetectSource(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotURL = req.URL
		json.NewEncoder(w).Encode(map[string]string{"response": "the transcript text"})
	}))
	defer server.Close()

	fetcher := NewFetcher(map[Source]string{SourceYouTube: server.URL}, 5*time.Second)
	transcript, err := fetcher.Fetch(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if transcript != "the transcript text" {
		t.Fatalf("transcript = %q", transcript)
	}
	if gotURL != "https://youtu.be/abc123" {
		t.Fatalf("endpoint received url %q", gotURL)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		url        string
		wantStatus int
		wantReason string
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream broke"))
			},
			url:        "https://youtu.be/abc",
			wantStatus: http.StatusBadGateway,
			wantReason: "upstream broke",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			url:        "https://youtu.be/abc",
			wantStatus: http.StatusOK,
		},
		{
			name: "missing transcript key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"other": "field"}`))
			},
			url:        "https://youtu.be/abc",
			wantStatus: http.StatusOK,
		},
		{
			name: "blank transcript",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"response": "   "}`))
			},
			url:        "https://youtu.be/abc",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			fetcher := NewFetcher(map[Source]string{SourceYouTube: server.URL}, 5*time.Second)
			_, err := fetcher.Fetch(context.Background(), tt.url)

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", fetchErr.StatusCode, tt.wantStatus)
			}
			if tt.wantReason != "" && fetchErr.Reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", fetchErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestFetchUnsupportedSource(t *testing.T) {
	fetcher := NewFetcher(map[Source]string{SourceYouTube: "http://localhost:1"}, time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://vimeo.com/12345")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Source != SourceUnknown {
		t.Fatalf("source = %s, want unknown", fetchErr.Source)
	}
}

func TestFetchMissingEndpoint(t *testing.T) {
	fetcher := NewFetcher(map[Source]string{SourceYouTube: "http://localhost:1"}, time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://www.ted.com/talks/some_talk")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Source != SourceTED {
		t.Fatalf("source = %s, want ted", fetchErr.Source)
	}
}
