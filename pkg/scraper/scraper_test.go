package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

func TestFetchParsesPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sphinxPage(soraJSBlock("2022.2.0", "a"), soraJSBlock("2022.1.0", "b"))))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 5 * time.Second})
	doc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("user agent = %q", gotUA)
	}
	rels := Extract(doc, profile.SoraJS(), "2022.1.0")
	if len(rels) != 1 || rels[0].Title != "2022.2.0" {
		t.Fatalf("unexpected releases %+v", rels)
	}

	// The same fetcher must be able to visit the same page again.
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(FetcherConfig{}).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", fe.StatusCode)
	}
	if fe.URL != srv.URL {
		t.Fatalf("url = %q", fe.URL)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewFetcher(FetcherConfig{Timeout: 100 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestFetchNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, err := NewFetcher(FetcherConfig{}).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}
