package rimatch

import (
	"errors"
	"math"
	"testing"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

func measured(cas, name string, ri float64) model.MeasuredRow {
	return model.MeasuredRow{CAS: cas, Name: name, File: "sample.d", RI: ri}
}

func TestJoinWithReference_LeftOuter(t *testing.T) {
	rows := []model.MeasuredRow{
		measured("123", "alpha-pinene", 1000),
		measured("999", "unknown", 1500),
		measured("456", "limonene", 1030),
	}
	summaries := []model.RISummary{
		{CAS: "123", MeanRI: 1010, StdDev: 10, N: 3},
		{CAS: "456", MeanRI: 1030, StdDev: math.NaN(), N: 1},
	}

	joined, err := JoinWithReference(rows, summaries)
	if err != nil {
		t.Fatalf("JoinWithReference() error = %v", err)
	}

	// 左外连接：行数与顺序都与测量表一致
	if len(joined) != len(rows) {
		t.Fatalf("len = %d, want %d", len(joined), len(rows))
	}
	for i := range rows {
		if joined[i].CAS != rows[i].CAS {
			t.Errorf("row %d CAS = %q, want %q", i, joined[i].CAS, rows[i].CAS)
		}
	}

	if joined[0].Summary == nil || joined[0].Difference != 10 {
		t.Errorf("row 0 = %+v, want difference 10", joined[0])
	}
	if joined[1].Summary != nil {
		t.Errorf("row 1 Summary = %+v, want nil", joined[1].Summary)
	}
	if !math.IsNaN(joined[1].Difference) {
		t.Errorf("row 1 Difference = %v, want NaN", joined[1].Difference)
	}
	if joined[2].Summary == nil || joined[2].Difference != 0 {
		t.Errorf("row 2 = %+v, want difference 0", joined[2])
	}
}

func TestJoinWithReference_EmptySummaries(t *testing.T) {
	rows := []model.MeasuredRow{measured("999", "unknown", 1500)}

	joined, err := JoinWithReference(rows, nil)
	if err != nil {
		t.Fatalf("JoinWithReference() error = %v", err)
	}
	if len(joined) != 1 {
		t.Fatalf("len = %d, want 1", len(joined))
	}
	if joined[0].Summary != nil || !math.IsNaN(joined[0].Difference) {
		t.Errorf("joined[0] = %+v, want nil summary and NaN difference", joined[0])
	}
}

func TestJoinWithReference_PreservesExtraColumns(t *testing.T) {
	row := measured("123", "alpha-pinene", 1000)
	row.Extra = map[string]string{"Area": "12345", "RT": "5.32"}

	joined, err := JoinWithReference([]model.MeasuredRow{row}, nil)
	if err != nil {
		t.Fatalf("JoinWithReference() error = %v", err)
	}
	if joined[0].Extra["Area"] != "12345" || joined[0].Extra["RT"] != "5.32" {
		t.Errorf("Extra = %v, passthrough columns lost", joined[0].Extra)
	}
}

func TestJoinWithReference_MissingCAS(t *testing.T) {
	rows := []model.MeasuredRow{measured("", "nameless", 1000)}

	_, err := JoinWithReference(rows, nil)
	var serr *model.SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SchemaError", err)
	}
	if serr.Column != "CAS" {
		t.Errorf("Column = %q, want CAS", serr.Column)
	}
}

func TestJoinWithReference_DuplicateSummariesFirstWins(t *testing.T) {
	// 前置条件被破坏时保留首条，而不是复制测量行
	rows := []model.MeasuredRow{measured("123", "alpha-pinene", 1000)}
	summaries := []model.RISummary{
		{CAS: "123", MeanRI: 1010, N: 3},
		{CAS: "123", MeanRI: 2000, N: 1},
	}

	joined, err := JoinWithReference(rows, summaries)
	if err != nil {
		t.Fatalf("JoinWithReference() error = %v", err)
	}
	if len(joined) != 1 {
		t.Fatalf("len = %d, want 1", len(joined))
	}
	if joined[0].Summary.MeanRI != 1010 {
		t.Errorf("MeanRI = %v, want 1010 (first summary)", joined[0].Summary.MeanRI)
	}
}
