package crawlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// fakeFetcher 按URL返回固定页面
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, errs: make(map[string]error)}
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)

	if err, ok := f.errs[pageURL]; ok {
		return nil, err
	}
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, &models.FetchError{URL: pageURL, Reason: "响应状态异常", StatusCode: http.StatusNotFound}
	}
	return &Page{URL: pageURL, StatusCode: http.StatusOK, HTML: html}, nil
}

func (f *fakeFetcher) Close() error { return nil }

// nopLogger 丢弃日志
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
