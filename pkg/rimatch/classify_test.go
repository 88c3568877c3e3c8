package rimatch

import (
	"errors"
	"math"
	"testing"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

func containsCAS(rows []model.JoinedRow, cas string) bool {
	for _, r := range rows {
		if r.CAS == cas {
			return true
		}
	}
	return false
}

func TestMatched_WithinThreshold(t *testing.T) {
	// 测量 1000，参考均值 1040，偏差 40 < 50
	m := []model.MeasuredRow{measured("123", "alpha-pinene", 1000)}
	records := []model.RawRIRecord{rec("123", 1040)}

	got, err := Matched(m, records, 50)
	if err != nil {
		t.Fatalf("Matched() error = %v", err)
	}
	if !containsCAS(got, "123") {
		t.Errorf("Matched() missing CAS 123")
	}

	poor, err := PoorlyMatched(m, records, 50)
	if err != nil {
		t.Fatalf("PoorlyMatched() error = %v", err)
	}
	if containsCAS(poor, "123") {
		t.Errorf("PoorlyMatched() should not contain CAS 123")
	}
}

func TestPoorlyMatched_BeyondThreshold(t *testing.T) {
	// 测量 1000，参考均值 1100，偏差 100 > 50
	m := []model.MeasuredRow{measured("123", "alpha-pinene", 1000)}
	records := []model.RawRIRecord{rec("123", 1100)}

	poor, err := PoorlyMatched(m, records, 50)
	if err != nil {
		t.Fatalf("PoorlyMatched() error = %v", err)
	}
	if !containsCAS(poor, "123") {
		t.Errorf("PoorlyMatched() missing CAS 123")
	}

	union, err := PoorOrNoMatch(m, records, 50)
	if err != nil {
		t.Fatalf("PoorOrNoMatch() error = %v", err)
	}
	if !containsCAS(union, "123") {
		t.Errorf("PoorOrNoMatch() missing CAS 123")
	}

	good, err := Matched(m, records, 50)
	if err != nil {
		t.Fatalf("Matched() error = %v", err)
	}
	if containsCAS(good, "123") {
		t.Errorf("Matched() should not contain CAS 123")
	}
}

func TestNoMatch_EmptyReference(t *testing.T) {
	m := []model.MeasuredRow{measured("999", "unknown", 1500)}

	report, err := Classify(m, nil, 50)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if !containsCAS(report.NoMatch, "999") {
		t.Errorf("NoMatch missing CAS 999")
	}
	if !containsCAS(report.PoorOrNoMatch, "999") {
		t.Errorf("PoorOrNoMatch missing CAS 999")
	}
	if containsCAS(report.WithReference, "999") {
		t.Errorf("WithReference should not contain CAS 999")
	}
	if len(report.All) != 1 || report.All[0].Summary != nil || !math.IsNaN(report.All[0].Difference) {
		t.Errorf("All[0] = %+v, want nil summary and NaN difference", report.All[0])
	}
}

func TestClassify_BoundaryExcludedFromBothSides(t *testing.T) {
	// 偏差恰好等于阈值的行两侧都不收：两个谓词都取严格不等号
	m := []model.MeasuredRow{measured("123", "alpha-pinene", 1000)}
	records := []model.RawRIRecord{rec("123", 1050)} // 偏差恰好 50

	report, err := Classify(m, records, 50)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if report.All[0].Difference != 50 {
		t.Fatalf("Difference = %v, want exactly 50", report.All[0].Difference)
	}
	if containsCAS(report.Matched, "123") {
		t.Errorf("Matched should not contain the boundary row")
	}
	if containsCAS(report.PoorlyMatched, "123") {
		t.Errorf("PoorlyMatched should not contain the boundary row")
	}
	// 存在参考数据，所以仍出现在 WithReference 中
	if !containsCAS(report.WithReference, "123") {
		t.Errorf("WithReference missing the boundary row")
	}
}

func TestClassify_PartitionAndCoverage(t *testing.T) {
	m := []model.MeasuredRow{
		measured("100", "a", 1000), // 匹配良好
		measured("200", "b", 1000), // 偏差过大
		measured("300", "c", 1000), // 恰好在阈值上
		measured("400", "d", 1000), // 无参考数据
	}
	records := []model.RawRIRecord{
		rec("100", 1010),
		rec("200", 1200),
		rec("300", 1050),
	}

	report, err := Classify(m, records, 50)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	// matched 与 poorly_matched 永不相交
	for _, r := range report.Matched {
		if containsCAS(report.PoorlyMatched, r.CAS) {
			t.Errorf("CAS %s in both Matched and PoorlyMatched", r.CAS)
		}
	}

	// |WithReference| + |NoMatch| == |All|
	if len(report.WithReference)+len(report.NoMatch) != len(report.All) {
		t.Errorf("coverage: %d + %d != %d",
			len(report.WithReference), len(report.NoMatch), len(report.All))
	}

	if len(report.Matched) != 1 || len(report.PoorlyMatched) != 1 ||
		len(report.NoMatch) != 1 || len(report.PoorOrNoMatch) != 2 {
		t.Errorf("view sizes = matched %d, poor %d, none %d, poorOrNone %d",
			len(report.Matched), len(report.PoorlyMatched),
			len(report.NoMatch), len(report.PoorOrNoMatch))
	}
}

func TestAddReferenceData_Passthrough(t *testing.T) {
	m := []model.MeasuredRow{
		measured("123", "alpha-pinene", 1000),
		measured("999", "unknown", 1500),
	}
	records := []model.RawRIRecord{rec("123", 1040)}

	joined, err := AddReferenceData(m, records)
	if err != nil {
		t.Fatalf("AddReferenceData() error = %v", err)
	}
	if len(joined) != len(m) {
		t.Errorf("len = %d, want %d (no filtering)", len(joined), len(m))
	}
}

func TestThresholdValidation(t *testing.T) {
	m := []model.MeasuredRow{measured("123", "alpha-pinene", 1000)}

	cases := []struct {
		name      string
		threshold float64
	}{
		{"negative", -1},
		{"nan", math.NaN()},
		{"positive inf", math.Inf(1)},
		{"negative inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Matched(m, nil, tc.threshold)
			var ierr *model.InvalidArgumentError
			if !errors.As(err, &ierr) {
				t.Errorf("Matched(threshold=%v) error = %v, want InvalidArgumentError", tc.threshold, err)
			}
		})
	}

	// 零阈值虽然退化但合法
	if _, err := Matched(m, nil, 0); err != nil {
		t.Errorf("Matched(threshold=0) error = %v, want nil", err)
	}
}
