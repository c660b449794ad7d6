package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// UnknownNovelTitle 标题无法用作文件名时的替代名称
const UnknownNovelTitle = "未知小说"

// ProgressStore 章节进度持久化
// {dir}/{title}.json 保存 章节键->正文, {dir}/{title}.txt 为合成的全文
type ProgressStore struct {
	dir    string
	logger Logger
}

// NewProgressStore 创建进度存储, dir 为空时使用当前目录
func NewProgressStore(dir string, logger Logger) *ProgressStore {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = defaultLogger()
	}
	return &ProgressStore{dir: dir, logger: logger}
}

// Dir 返回输出目录
func (s *ProgressStore) Dir() string {
	return s.dir
}

// Paths 返回进度文件和文本文件路径
func (s *ProgressStore) Paths(title string) (jsonPath, txtPath string) {
	base := models.SafeFilename(title)
	if strings.TrimSpace(base) == "" {
		base = UnknownNovelTitle
	}
	return filepath.Join(s.dir, base+".json"), filepath.Join(s.dir, base+".txt")
}

// Exists 进度文件是否存在
func (s *ProgressStore) Exists(title string) bool {
	jsonPath, _ := s.Paths(title)
	_, err := os.Stat(jsonPath)
	return err == nil
}

// Count 已保存的章节数
func (s *ProgressStore) Count(title string) int {
	return len(s.Load(title))
}

// Load 读取进度
// 文件不存在、为空或损坏时都返回空map, 损坏只记录日志
func (s *ProgressStore) Load(title string) models.ProgressMap {
	jsonPath, _ := s.Paths(title)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Errorf("%v", &models.PersistenceError{Path: jsonPath, Op: "读取", Cause: err})
		}
		return make(models.ProgressMap)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		s.logger.Infof("进度文件 %s 为空，从头开始", jsonPath)
		return make(models.ProgressMap)
	}

	var progress models.ProgressMap
	if err := json.Unmarshal(data, &progress); err != nil {
		s.logger.Errorf("%v", &models.PersistenceError{Path: jsonPath, Op: "解析", Cause: err})
		return make(models.ProgressMap)
	}
	if progress == nil {
		progress = make(models.ProgressMap)
	}
	return progress
}

// Save 原子写入进度文件 (写临时文件后重命名)
func (s *ProgressStore) Save(title string, progress models.ProgressMap) error {
	jsonPath, _ := s.Paths(title)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(progress); err != nil {
		return &models.PersistenceError{Path: jsonPath, Op: "序列化", Cause: err}
	}

	if err := writeFileAtomic(jsonPath, buf.Bytes()); err != nil {
		return &models.PersistenceError{Path: jsonPath, Op: "写入", Cause: err}
	}
	return nil
}

// Clear 清空已存在的进度文件和文本文件
func (s *ProgressStore) Clear(title string) {
	jsonPath, txtPath := s.Paths(title)

	for _, f := range []struct {
		path    string
		content string
	}{
		{jsonPath, "{}"},
		{txtPath, ""},
	} {
		if _, err := os.Stat(f.path); err != nil {
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			s.logger.Errorf("清空文件时出错: %v", err)
			continue
		}
		s.logger.Infof("已清空文件: %s", f.path)
	}
}

// Assemble 按章节顺序合成全文
// 先按 orderedKeys 顺序写入, 再追加不在列表中的章节 (按章节号排序)
// 每个章节正文恰好写入一次
func (s *ProgressStore) Assemble(title string, orderedKeys []string, progress models.ProgressMap) (string, error) {
	_, txtPath := s.Paths(title)

	var sb strings.Builder
	written := make(map[string]bool, len(progress))

	for _, key := range orderedKeys {
		if written[key] {
			continue
		}
		body, ok := progress[key]
		if !ok {
			s.logger.Infof("章节 %s 不在进度中，跳过", key)
			continue
		}
		sb.WriteString(body)
		written[key] = true
		s.logger.Infof("写入章节: %s", key)
	}

	orphans := make([]string, 0)
	for key := range progress {
		if !written[key] {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	sort.SliceStable(orphans, func(i, j int) bool {
		return ChapterNumber(orphans[i]) < ChapterNumber(orphans[j])
	})
	for _, key := range orphans {
		sb.WriteString(progress[key])
		s.logger.Infof("追加未匹配章节: %s", key)
	}

	if err := writeFileAtomic(txtPath, []byte(sb.String())); err != nil {
		return "", &models.PersistenceError{Path: txtPath, Op: "写入", Cause: err}
	}
	return txtPath, nil
}

// OrphanCount 统计不在 orderedKeys 中的章节数
func OrphanCount(orderedKeys []string, progress models.ProgressMap) int {
	listed := make(map[string]bool, len(orderedKeys))
	for _, key := range orderedKeys {
		listed[key] = true
	}
	count := 0
	for key := range progress {
		if !listed[key] {
			count++
		}
	}
	return count
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
