package crawlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNovelServer(t *testing.T) *httptest.Server {
	t.Helper()
	text := "<html><body><h1>第一章 风起</h1></body></html>"

	mux := http.NewServeMux()
	mux.HandleFunc("/utf8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(text))
	})
	mux.HandleFunc("/gbk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write(gbkBytes(t, text))
	})
	mux.HandleFunc("/br", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write(gbkBytes(t, text))
		bw.Close()
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(r.Header.Get("User-Agent") + "|" + r.Header.Get("Referer")))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/busy", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStaticFetcherDecodesPages(t *testing.T) {
	server := newNovelServer(t)
	fetcher := NewStaticFetcher(FetcherOptions{Timeout: 5 * time.Second})
	defer fetcher.Close()

	for _, path := range []string{"/utf8", "/gbk", "/br"} {
		t.Run(path, func(t *testing.T) {
			page, err := fetcher.Fetch(context.Background(), server.URL+path)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, page.StatusCode)
			assert.Contains(t, page.HTML, "第一章 风起")

			doc, err := page.Document()
			require.NoError(t, err)
			assert.Equal(t, "第一章 风起", doc.Find("h1").Text())
		})
	}
}

func TestStaticFetcherForcedEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 站点错误声明为utf-8
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(gbkBytes(t, "<p>第二章 云涌</p>"))
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(FetcherOptions{Encoding: "gbk"})
	page, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "第二章 云涌")
}

func TestStaticFetcherAppliesHeaders(t *testing.T) {
	server := newNovelServer(t)
	headers := models.StaticHeaders(http.Header{
		"User-Agent": {"novelcrawl-test"},
		"Referer":    {"https://www.hhlwx.org/"},
	})
	fetcher := NewStaticFetcher(FetcherOptions{Headers: headers})

	page, err := fetcher.Fetch(context.Background(), server.URL+"/headers")
	require.NoError(t, err)
	assert.Equal(t, "novelcrawl-test|https://www.hhlwx.org/", page.HTML)
}

func TestStaticFetcherErrorStatus(t *testing.T) {
	server := newNovelServer(t)
	fetcher := NewStaticFetcher(FetcherOptions{})

	tests := []struct {
		path      string
		status    int
		temporary bool
	}{
		{"/gone", http.StatusGone, false},
		{"/missing", http.StatusNotFound, false},
		{"/busy", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			page, err := fetcher.Fetch(context.Background(), server.URL+tt.path)
			require.Error(t, err)
			assert.Nil(t, page)

			var fetchErr *models.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
			assert.Equal(t, tt.temporary, fetchErr.Temporary())
		})
	}
}

func TestStaticFetcherCanceledContext(t *testing.T) {
	server := newNovelServer(t)
	fetcher := NewStaticFetcher(FetcherOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, server.URL+"/utf8")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
