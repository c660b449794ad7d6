package core

import (
	"fmt"
	"strings"
	"sync"
)

// recordLogger 记录日志内容的测试日志器
type recordLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]string(nil), l.infos...)
	return append(out, l.errors...)
}

func (l *recordLogger) contains(substr string) bool {
	for _, line := range l.all() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
