package rimatch

import (
	"math"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// JoinWithReference 以 CAS 号为键，将测量表与汇总表做左外连接。
// 每一行测量数据在输出中恰好出现一次，顺序不变；没有对应汇总的行
// Summary 为 nil、Difference 为 NaN。前置条件：summaries 中 CAS 唯一
// （SummarizeReferenceData 的输出天然满足）；若有重复，保留首条。
// 测量行的 CAS 为空视为缺少连接键，返回 SchemaError。
func JoinWithReference(measured []model.MeasuredRow, summaries []model.RISummary) ([]model.JoinedRow, error) {
	index := make(map[string]*model.RISummary, len(summaries))
	for i := range summaries {
		s := summaries[i]
		if _, ok := index[s.CAS]; !ok {
			index[s.CAS] = &s
		}
	}

	joined := make([]model.JoinedRow, 0, len(measured))
	for _, m := range measured {
		if m.CAS == "" {
			return nil, &model.SchemaError{Column: "CAS"}
		}
		row := model.JoinedRow{
			MeasuredRow: m,
			Summary:     index[m.CAS],
			Difference:  math.NaN(),
		}
		if row.Summary != nil {
			row.Difference = math.Abs(row.Summary.MeanRI - m.RI)
		}
		joined = append(joined, row)
	}
	return joined, nil
}
