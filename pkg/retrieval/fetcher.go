package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/ri_radar/pkg/logger"
	"github.com/iWorld-y/ri_radar/pkg/model"
)

// Options Fetcher 的运行参数
type Options struct {
	Timeout        time.Duration // 单次查询超时，默认 30s
	QPS            int           // 限流突发量，默认 1
	RPM            int           // 每分钟请求数上限，0 表示不限流
	MaxConcurrency int           // 并发查询数上限，默认 4
}

// Fetcher 检索编排器。负责去重 CAS 号、按三种温度程序模式分别查询、
// 限流并发请求，并把结果确定性地合并为一张记录表。
type Fetcher struct {
	src     Source
	timeout time.Duration
	maxConc int
	limiter *rate.Limiter
}

// NewFetcher 创建检索编排器
func NewFetcher(src Source, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}

	limit := rate.Inf
	burst := opts.QPS
	if burst <= 0 {
		burst = 1
	}
	if opts.RPM > 0 {
		limit = rate.Limit(float64(opts.RPM) / 60.0)
	}

	return &Fetcher{
		src:     src,
		timeout: opts.Timeout,
		maxConc: opts.MaxConcurrency,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// FetchAll 为一组 CAS 号取回参考记录的并集。
// CAS 号先去重，避免重复的网络调用；每个 CAS 在每种温度程序模式下
// 各查询一次。查询并发执行，但合并结果与完成顺序无关：按整行去重
// 后排序。部分查询失败时返回已取得的记录和 *RetrievalError，
// 全部成功但结果为空不是错误（下游会将所有行归为 no-match）。
func (f *Fetcher) FetchAll(ctx context.Context, casIDs []string, typ model.RIType, pol model.Polarity) ([]model.RawRIRecord, error) {
	typ, err := model.ParseRIType(string(typ))
	if err != nil {
		return nil, err
	}
	pol, err = model.ParsePolarity(string(pol))
	if err != nil {
		return nil, err
	}

	queries := buildQueries(casIDs, typ, pol)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []model.RawRIRecord
		failed  []Query
		errs    []error
	)
	sem := make(chan struct{}, f.maxConc)

	for _, q := range queries {
		wg.Add(1)
		go func(q Query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := f.limiter.Wait(ctx); err != nil {
				mu.Lock()
				failed = append(failed, q)
				errs = append(errs, err)
				mu.Unlock()
				return
			}

			qctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			recs, err := f.src.FetchRI(qctx, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Log.Warnf("查询失败 [CAS=%s, program=%s]: %v", q.CAS, q.Program, err)
				failed = append(failed, q)
				errs = append(errs, err)
				return
			}
			records = append(records, recs...)
		}(q)
	}
	wg.Wait()

	records = dedupeRecords(records)

	if len(errs) > 0 {
		sort.Slice(failed, func(i, j int) bool {
			if failed[i].CAS != failed[j].CAS {
				return failed[i].CAS < failed[j].CAS
			}
			return failed[i].Program < failed[j].Program
		})
		return records, &RetrievalError{Failed: failed, Partial: len(records), Err: errors.Join(errs...)}
	}
	return records, nil
}

// buildQueries 去重 CAS 号（保留首见顺序，跳过空串），
// 再与全部温度程序模式做笛卡尔积
func buildQueries(casIDs []string, typ model.RIType, pol model.Polarity) []Query {
	seen := make(map[string]bool, len(casIDs))
	queries := make([]Query, 0, len(casIDs)*3)
	for _, cas := range casIDs {
		if cas == "" || seen[cas] {
			continue
		}
		seen[cas] = true
		for _, prog := range model.TempPrograms() {
			queries = append(queries, Query{CAS: cas, Type: typ, Polarity: pol, Program: prog})
		}
	}
	return queries
}

// dedupeRecords 按整行去重并排序，保证合并结果确定
func dedupeRecords(records []model.RawRIRecord) []model.RawRIRecord {
	seen := make(map[model.RawRIRecord]bool, len(records))
	out := make([]model.RawRIRecord, 0, len(records))
	for _, rec := range records {
		if seen[rec] {
			continue
		}
		seen[rec] = true
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CAS != b.CAS {
			return a.CAS < b.CAS
		}
		if a.Program != b.Program {
			return a.Program < b.Program
		}
		return a.RI < b.RI
	})
	return out
}
