package crawlers

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// LinkSet 章节链接集合
// 按URL去重并保留首次出现的顺序
type LinkSet struct {
	refs    []models.ChapterRef
	visited map[string]bool
}

// NewLinkSet 创建链接集合
func NewLinkSet() *LinkSet {
	return &LinkSet{visited: make(map[string]bool)}
}

// Push 添加章节链接, 重复或无效的URL返回错误
func (s *LinkSet) Push(title, link string) error {
	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s", parsed.Scheme)
	}
	if s.visited[link] {
		return fmt.Errorf("URL已存在: %s", link)
	}

	s.visited[link] = true
	s.refs = append(s.refs, models.ChapterRef{RawTitle: title, URL: link})
	return nil
}

// Contains 检查URL是否已存在
func (s *LinkSet) Contains(link string) bool {
	return s.visited[link]
}

// SortedByURL 按URL字符串稳定排序后返回副本, URL相同的保持加入顺序
func (s *LinkSet) SortedByURL() []models.ChapterRef {
	refs := append([]models.ChapterRef(nil), s.refs...)
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].URL < refs[j].URL
	})
	return refs
}
