package retrieval

import (
	"context"
	"fmt"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// Query 对参考数据库的一次查询：单个 CAS 号在单一维度组合下的检索
type Query struct {
	CAS      string
	Type     model.RIType
	Polarity model.Polarity
	Program  model.TempProgram
}

// Source 定义参考数据来源接口。真正的 NIST WebBook 抓取客户端由
// 调用方实现；本仓库只提供本地实现（CSV 转储、数据库缓存）。
// 查无记录时应返回空切片而不是错误。
type Source interface {
	FetchRI(ctx context.Context, q Query) ([]model.RawRIRecord, error)
}

// RetrievalError 检索失败：网络错误、服务异常或响应不合法。
// Failed 记录失败的查询，Partial 表示成功部分的记录数，
// 便于调用方区分"查无结果"与"服务故障"。
type RetrievalError struct {
	Failed  []Query
	Partial int
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("reference retrieval failed for %d queries (%d records fetched): %v",
		len(e.Failed), e.Partial, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
