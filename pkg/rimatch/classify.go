package rimatch

import (
	"fmt"
	"math"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// DefaultThreshold 默认的保留指数偏差阈值
const DefaultThreshold = 50

// ValidateThreshold 校验阈值：必须是非负的有限数
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return &model.InvalidArgumentError{Name: "threshold", Reason: "must be a finite number"}
	}
	if threshold < 0 {
		return &model.InvalidArgumentError{Name: "threshold", Reason: fmt.Sprintf("must be non-negative, got %v", threshold)}
	}
	return nil
}

// 分类谓词。matched/poorlyMatched 对阈值均取严格不等号：
// difference 恰好等于阈值的行不属于任何一侧。

func isMatched(r model.JoinedRow, threshold float64) bool {
	return r.Summary != nil && r.Difference < threshold
}

func isPoorlyMatched(r model.JoinedRow, threshold float64) bool {
	return r.Summary != nil && r.Difference > threshold
}

func isNoMatch(r model.JoinedRow) bool {
	return r.Summary == nil
}

func filter(rows []model.JoinedRow, keep func(model.JoinedRow) bool) []model.JoinedRow {
	out := make([]model.JoinedRow, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// joinRecords 汇总原始记录并与测量表连接，六个分类入口共用
func joinRecords(measured []model.MeasuredRow, records []model.RawRIRecord) ([]model.JoinedRow, error) {
	return JoinWithReference(measured, SummarizeReferenceData(records))
}

// AddReferenceData 返回附加了参考统计与偏差列的完整连接表，不做过滤
func AddReferenceData(measured []model.MeasuredRow, records []model.RawRIRecord) ([]model.JoinedRow, error) {
	return joinRecords(measured, records)
}

// Matched 返回偏差严格小于阈值的行（数据库匹配良好）
func Matched(measured []model.MeasuredRow, records []model.RawRIRecord, threshold float64) ([]model.JoinedRow, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}
	return filter(joined, func(r model.JoinedRow) bool { return isMatched(r, threshold) }), nil
}

// PoorlyMatched 返回存在参考数据但偏差严格大于阈值的行
func PoorlyMatched(measured []model.MeasuredRow, records []model.RawRIRecord, threshold float64) ([]model.JoinedRow, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}
	return filter(joined, func(r model.JoinedRow) bool { return isPoorlyMatched(r, threshold) }), nil
}

// NoMatch 返回参考数据库中完全没有记录的行
func NoMatch(measured []model.MeasuredRow, records []model.RawRIRecord) ([]model.JoinedRow, error) {
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}
	return filter(joined, isNoMatch), nil
}

// PoorOrNoMatch 返回无参考数据或偏差超过阈值的行（两类失败的并集）
func PoorOrNoMatch(measured []model.MeasuredRow, records []model.RawRIRecord, threshold float64) ([]model.JoinedRow, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}
	return filter(joined, func(r model.JoinedRow) bool {
		return isNoMatch(r) || isPoorlyMatched(r, threshold)
	}), nil
}

// OnlyMatches 返回存在参考数据的所有行，不论匹配质量
func OnlyMatches(measured []model.MeasuredRow, records []model.RawRIRecord) ([]model.JoinedRow, error) {
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}
	return filter(joined, model.JoinedRow.HasReference), nil
}

// Classify 做一次汇总和连接，产出全部六个视图。所有子表来自同一张
// 连接表，避免各入口重复计算导致的不一致。
func Classify(measured []model.MeasuredRow, records []model.RawRIRecord, threshold float64) (*model.MatchReport, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	joined, err := joinRecords(measured, records)
	if err != nil {
		return nil, err
	}

	return &model.MatchReport{
		Threshold:     threshold,
		All:           joined,
		Matched:       filter(joined, func(r model.JoinedRow) bool { return isMatched(r, threshold) }),
		PoorlyMatched: filter(joined, func(r model.JoinedRow) bool { return isPoorlyMatched(r, threshold) }),
		NoMatch:       filter(joined, isNoMatch),
		PoorOrNoMatch: filter(joined, func(r model.JoinedRow) bool {
			return isNoMatch(r) || isPoorlyMatched(r, threshold)
		}),
		WithReference: filter(joined, model.JoinedRow.HasReference),
	}, nil
}
