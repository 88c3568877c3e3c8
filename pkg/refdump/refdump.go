// Package refdump 提供基于本地 CSV 转储的参考数据源，
// 适合离线工作流或预先抓好的参考值。
package refdump

import (
	"context"
	"fmt"
	"sync"

	"github.com/iWorld-y/ri_radar/pkg/model"
	"github.com/iWorld-y/ri_radar/pkg/retrieval"
	"github.com/iWorld-y/ri_radar/pkg/tableio"
)

// Source 从 CSV 转储按查询维度过滤记录。文件在首次查询时加载一次。
type Source struct {
	path string

	once    sync.Once
	loadErr error
	records []model.RawRIRecord
}

// New 创建 CSV 转储数据源
func New(path string) *Source {
	return &Source{path: path}
}

// Ensure Source implements retrieval.Source
var _ retrieval.Source = (*Source)(nil)

// FetchRI implements retrieval.Source
func (s *Source) FetchRI(ctx context.Context, q retrieval.Query) ([]model.RawRIRecord, error) {
	s.once.Do(func() {
		s.records, s.loadErr = tableio.ReadReferenceRecordsFile(s.path)
	})
	if s.loadErr != nil {
		return nil, fmt.Errorf("load reference dump %s failed: %w", s.path, s.loadErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.RawRIRecord
	for _, rec := range s.records {
		if rec.CAS == q.CAS && rec.Type == q.Type && rec.Polarity == q.Polarity && rec.Program == q.Program {
			out = append(out, rec)
		}
	}
	return out, nil
}
