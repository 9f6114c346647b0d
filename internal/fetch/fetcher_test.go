package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podscribe/internal/fetch"
)

func newTestFetcher(t *testing.T, server *httptest.Server) (*fetch.Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	var client *http.Client
	if server != nil {
		client = server.Client()
	}
	fetcher := fetch.New(dir, client, "test-agent")
	fetcher.SetProgressOutput(io.Discard)
	return fetcher, dir
}

func TestFetchDirect(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "4096")
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher, dir := newTestFetcher(t, server)
	result, err := fetcher.Fetch(context.Background(), server.URL+"/show/episode.mp3", fetch.Hints{
		PodcastName:  "Go Time",
		EpisodeTitle: "Episode One",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if result.Strategy != "direct" {
		t.Errorf("strategy = %q, want direct", result.Strategy)
	}
	if result.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", result.Size, len(payload))
	}
	if result.Warning != "" {
		t.Errorf("unexpected warning: %s", result.Warning)
	}
	if filepath.Dir(result.Path) != dir {
		t.Errorf("file written outside audio dir: %s", result.Path)
	}
	name := filepath.Base(result.Path)
	if !strings.HasPrefix(name, "Go_Time_Episode_One_") || !strings.HasSuffix(name, ".mp3") {
		t.Errorf("unexpected filename %q", name)
	}

	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("downloaded content differs from payload")
	}
}

func TestFetchSizeMismatchWarns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "9999")
			return
		}
		w.Write([]byte("short"))
	}))
	defer server.Close()

	fetcher, _ := newTestFetcher(t, server)
	result, err := fetcher.Fetch(context.Background(), server.URL+"/a.mp3", fetch.Hints{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Warning == "" {
		t.Error("expected size mismatch warning")
	}
}

func TestFetchFallsBackToStreaming(t *testing.T) {
	payload := bytes.Repeat([]byte("b"), 3*8192+100)
	var gets int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gets++
		// First GET belongs to the direct strategy.
		if gets == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher, _ := newTestFetcher(t, server)
	result, err := fetcher.Fetch(context.Background(), server.URL+"/b.m4a", fetch.Hints{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Strategy != "streaming" {
		t.Errorf("strategy = %q, want streaming", result.Strategy)
	}
	if result.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", result.Size, len(payload))
	}
	info, err := os.Stat(result.Path)
	if err != nil {
		t.Fatalf("stat downloaded file: %v", err)
	}
	if info.Size() != int64(len(payload)) {
		t.Errorf("file size = %d, want %d", info.Size(), len(payload))
	}
	if filepath.Ext(result.Path) != ".m4a" {
		t.Errorf("extension = %q, want .m4a", filepath.Ext(result.Path))
	}
}

func TestFetchBothStrategiesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher, _ := newTestFetcher(t, server)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/gone.mp3", fetch.Hints{})
	var fetchErr *fetch.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
	if fetchErr.DirectErr == nil || fetchErr.StreamErr == nil {
		t.Errorf("expected both strategy errors populated: %v", fetchErr)
	}
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	fetcher, _ := newTestFetcher(t, nil)

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/a.mp3", "http://"} {
		_, err := fetcher.Fetch(context.Background(), raw, fetch.Hints{})
		var invalid *fetch.InvalidURLError
		if !errors.As(err, &invalid) {
			t.Errorf("Fetch(%q): expected InvalidURLError, got %v", raw, err)
		}
	}
}

func TestPurgeOlderThan(t *testing.T) {
	dir := t.TempDir()
	fetcher := fetch.New(dir, nil, "")

	old := filepath.Join(dir, "old.mp3")
	fresh := filepath.Join(dir, "fresh.mp3")
	if err := os.WriteFile(old, []byte("old audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fresh, []byte("fresh"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, bytes, err := fetcher.PurgeOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if bytes != int64(len("old audio")) {
		t.Errorf("bytes = %d, want %d", bytes, len("old audio"))
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("old file still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}

func TestPurgeMissingDir(t *testing.T) {
	fetcher := fetch.New(filepath.Join(t.TempDir(), "does-not-exist"), nil, "")
	removed, bytes, err := fetcher.PurgeOlderThan(time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if removed != 0 || bytes != 0 {
		t.Errorf("expected no-op, got removed=%d bytes=%d", removed, bytes)
	}
}
