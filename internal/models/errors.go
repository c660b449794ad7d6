package models

import (
	"fmt"
	"net/http"
)

// DiscoveryError 章节列表获取失败 (任务级致命错误)
type DiscoveryError struct {
	URL    string
	Reason string
	Cause  error
}

// Error 实现error接口
func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("获取章节列表失败 [%s]: %s: %v", e.URL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("获取章节列表失败 [%s]: %s", e.URL, e.Reason)
}

// Unwrap 支持errors.Unwrap
func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// FetchError 单个章节抓取失败 (可重试)
type FetchError struct {
	URL        string
	Reason     string
	StatusCode int // 0 表示未收到响应
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("获取章节内容失败 [%s]: %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (状态码: %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Temporary 页面不存在(404/410)视为永久错误,其余视为暂时错误
func (e *FetchError) Temporary() bool {
	return e.StatusCode != http.StatusNotFound && e.StatusCode != http.StatusGone
}

// PersistenceError 进度文件读写错误
type PersistenceError struct {
	Path  string
	Op    string // read, parse, write, rename
	Cause error
}

// Error 实现error接口
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("进度文件%s失败 [%s]: %v", e.Op, e.Path, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
