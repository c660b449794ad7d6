package crawlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/go-resty/resty/v2"
)

// DefaultDebugDir 默认调试页面目录
const DefaultDebugDir = "debug_html"

// Snapshotter 保存页面HTML用于排查解析问题
type Snapshotter struct {
	dir     string
	client  *resty.Client
	headers models.HeaderProvider
}

// NewSnapshotter 创建快照保存器
func NewSnapshotter(dir string, headers models.HeaderProvider) *Snapshotter {
	if dir == "" {
		dir = DefaultDebugDir
	}

	client := resty.New().
		SetTimeout(DefaultRequestTimeout).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}).
		SetLogger(utils.NewAppLogger(utils.Logger)).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})

	return &Snapshotter{dir: dir, client: client, headers: headers}
}

// Dir 快照目录
func (s *Snapshotter) Dir() string {
	return s.dir
}

// Capture 重新请求页面并保存
func (s *Snapshotter) Capture(ctx context.Context, name, pageURL string) (string, error) {
	req := s.client.R().SetContext(ctx)
	if s.headers != nil {
		headers, err := s.headers.GetHeaders()
		if err != nil {
			return "", fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		req.SetHeaderMultiValues(headers)
	}

	resp, err := req.Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("请求调试页面失败 [%s]: %w", pageURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		utils.Warnf("调试页面状态码异常 [%s]: %d", pageURL, resp.StatusCode())
	}

	body, err := decompressResponse(resp.Header().Get("Content-Encoding"), resp.Body())
	if err != nil {
		return "", err
	}
	htmlText, err := decodeHTML(body, resp.Header().Get("Content-Type"), "")
	if err != nil {
		return "", err
	}
	return s.Save(name, pageURL, htmlText)
}

// Save 将已获取的HTML写入 {dir}/{name}.html
func (s *Snapshotter) Save(name, pageURL, htmlText string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("创建调试目录失败: %w", err)
	}

	path := filepath.Join(s.dir, snapshotName(name, pageURL)+".html")
	if err := os.WriteFile(path, []byte(htmlText), 0644); err != nil {
		return "", fmt.Errorf("保存调试文件失败: %w", err)
	}
	utils.Infof("调试页面已保存到 %s", path)
	return path, nil
}

// snapshotName 生成快照文件名
// 名称过短时取URL中最后一个非.html的路径段, 仍为空则按URL哈希命名
func snapshotName(name, pageURL string) string {
	safe := models.SafeFilename(strings.TrimSpace(name))
	if utf8.RuneCountInString(safe) >= 2 {
		return safe
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		segments := strings.Split(parsed.Path, "/")
		for i := len(segments) - 1; i >= 0; i-- {
			seg := models.SafeFilename(segments[i])
			if len(seg) > 1 && !strings.HasSuffix(seg, ".html") {
				return seg
			}
		}
	}

	h := fnv.New32a()
	h.Write([]byte(pageURL))
	return fmt.Sprintf("chapter_%d", h.Sum32()%1000)
}
