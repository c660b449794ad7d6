package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/cenkalti/backoff/v4"
)

// FetchFunc 单次章节抓取
type FetchFunc func(ctx context.Context, url string) models.FetchResult

// attemptWindowBackOff 第n次失败后等待 [n*base, (n+1)*base) 区间内的随机时长
type attemptWindowBackOff struct {
	base    time.Duration
	attempt int
	jitter  func() float64
}

func (b *attemptWindowBackOff) NextBackOff() time.Duration {
	b.attempt++
	n := time.Duration(b.attempt)
	return n*b.base + time.Duration(b.jitter()*float64(b.base))
}

func (b *attemptWindowBackOff) Reset() {
	b.attempt = 0
}

// RetryFetcher 为章节抓取提供有限次重试
// 不会panic, 也不会返回错误: 结果只有成功或放弃两种
type RetryFetcher struct {
	limit     int
	baseDelay time.Duration
	logger    Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// RetryOption RetryFetcher 选项
type RetryOption func(*RetryFetcher)

// WithRetrySleep 替换等待函数 (测试用)
func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryFetcher) { r.sleep = sleep }
}

// WithRetryJitter 替换随机数来源, 返回值应在 [0,1)
func WithRetryJitter(jitter func() float64) RetryOption {
	return func(r *RetryFetcher) { r.jitter = jitter }
}

// NewRetryFetcher 创建重试抓取器
// limit 为总尝试次数 (不是额外重试次数), 小于1时按1处理
func NewRetryFetcher(limit int, baseDelay time.Duration, logger Logger, opts ...RetryOption) *RetryFetcher {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = defaultLogger()
	}
	r := &RetryFetcher{
		limit:     limit,
		baseDelay: baseDelay,
		logger:    logger,
		sleep:     utils.SleepContext,
		jitter:    rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit 返回总尝试次数
func (r *RetryFetcher) Limit() int {
	return r.limit
}

func (r *RetryFetcher) newBackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &attemptWindowBackOff{base: r.baseDelay, jitter: r.jitter}
	b = backoff.WithMaxRetries(b, uint64(r.limit-1))
	return backoff.WithContext(b, ctx)
}

// Fetch 执行抓取, 失败时按退避策略重试
func (r *RetryFetcher) Fetch(ctx context.Context, fetch FetchFunc, url string) models.FetchResult {
	b := r.newBackOff(ctx)
	b.Reset()

	var lastErr error
	for attempt := 1; ; attempt++ {
		result := r.safeFetch(ctx, fetch, url)
		if result.OK() {
			result.Attempts = attempt
			return result
		}

		lastErr = result.Err
		if lastErr == nil {
			lastErr = errors.New("未知错误")
		}
		r.logger.Errorf("爬取失败 (第 %d/%d 次尝试): %v", attempt, r.limit, lastErr)

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			if ctx.Err() != nil {
				r.logger.Errorf("任务已取消，放弃该章节: %s", url)
			} else {
				r.logger.Errorf("达到最大重试次数 %d，放弃该章节", r.limit)
			}
			return models.Skipped(url, attempt, lastErr)
		}

		r.logger.Infof("%.1f 秒后重试...", delay.Seconds())
		if err := r.sleep(ctx, delay); err != nil {
			r.logger.Errorf("任务已取消，放弃该章节: %s", url)
			return models.Skipped(url, attempt, lastErr)
		}
	}
}

// safeFetch 将抓取函数中的panic转换为一次失败
func (r *RetryFetcher) safeFetch(ctx context.Context, fetch FetchFunc, url string) (result models.FetchResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = models.Failed(url, fmt.Errorf("抓取时发生panic: %v", rec))
		}
	}()
	return fetch(ctx, url)
}
