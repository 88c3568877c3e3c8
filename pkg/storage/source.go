package storage

import (
	"context"

	"github.com/iWorld-y/ri_radar/pkg/logger"
	"github.com/iWorld-y/ri_radar/pkg/model"
	"github.com/iWorld-y/ri_radar/pkg/retrieval"
)

// Source 以数据库缓存为后端的参考数据源
type Source struct {
	store *Storage
}

// NewSource 创建数据库数据源
func NewSource(store *Storage) *Source {
	return &Source{store: store}
}

// Ensure Source implements retrieval.Source
var _ retrieval.Source = (*Source)(nil)

// FetchRI implements retrieval.Source
func (s *Source) FetchRI(ctx context.Context, q retrieval.Query) ([]model.RawRIRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.LoadRecords(q.CAS, q.Type, q.Polarity, q.Program)
}

// CachedSource 装饰另一个数据源，将成功取回的记录写入数据库缓存。
// 写缓存失败只记日志，不影响本次取数。
type CachedSource struct {
	inner retrieval.Source
	store *Storage
}

// NewCachedSource 创建带缓存的装饰数据源
func NewCachedSource(inner retrieval.Source, store *Storage) *CachedSource {
	return &CachedSource{inner: inner, store: store}
}

// Ensure CachedSource implements retrieval.Source
var _ retrieval.Source = (*CachedSource)(nil)

// FetchRI implements retrieval.Source
func (c *CachedSource) FetchRI(ctx context.Context, q retrieval.Query) ([]model.RawRIRecord, error) {
	records, err := c.inner.FetchRI(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if err := c.store.SaveRecords(records); err != nil {
			logger.Log.Warnf("写入参考记录缓存失败 [CAS=%s]: %v", q.CAS, err)
		}
	}
	return records, nil
}
