package rimatch

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// SummarizeReferenceData 将原始文献记录按 CAS 号聚合为汇总统计。
// 均值四舍五入到整数（math.Round，.5 远离零取整），标准差取样本
// 标准差（n-1），只有一条记录时为 NaN。重复的整行同样计入 N。
// 输出按 CAS 排序，与输入行顺序无关；空输入返回空表而不是错误。
func SummarizeReferenceData(records []model.RawRIRecord) []model.RISummary {
	groups := make(map[string][]float64)
	for _, rec := range records {
		groups[rec.CAS] = append(groups[rec.CAS], rec.RI)
	}

	summaries := make([]model.RISummary, 0, len(groups))
	for cas, ris := range groups {
		sd := math.NaN()
		if len(ris) > 1 {
			sd = stat.StdDev(ris, nil)
		}
		summaries = append(summaries, model.RISummary{
			CAS:    cas,
			MeanRI: math.Round(stat.Mean(ris, nil)),
			StdDev: sd,
			N:      len(ris),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CAS < summaries[j].CAS
	})
	return summaries
}
