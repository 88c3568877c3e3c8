// Package tableio 负责测量表与参考记录的 CSV 读写。
// 测量表要求 CAS、RI、Name、File 四列，其余列原样透传。
package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// 测量表的必需列
var requiredColumns = []string{"CAS", "RI", "Name", "File"}

// ReadMeasured 从 CSV 读入测量表。表头列序任意，
// 缺少必需列返回 SchemaError，RI 列无法解析为数值时报告行号。
func ReadMeasured(r io.Reader) ([]model.MeasuredRow, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &model.SchemaError{Column: "CAS"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header failed: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, &model.SchemaError{Column: col}
		}
	}

	// 透传列：表头中除必需列以外的所有列
	required := map[string]bool{"CAS": true, "RI": true, "Name": true, "File": true}
	var extraCols []string
	for _, name := range header {
		if !required[name] {
			extraCols = append(extraCols, name)
		}
	}

	var rows []model.MeasuredRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d failed: %w", line, err)
		}

		ri, err := strconv.ParseFloat(record[colIdx["RI"]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: RI value %q is not numeric", line, record[colIdx["RI"]])
		}

		row := model.MeasuredRow{
			CAS:  record[colIdx["CAS"]],
			Name: record[colIdx["Name"]],
			File: record[colIdx["File"]],
			RI:   ri,
		}
		if len(extraCols) > 0 {
			row.Extra = make(map[string]string, len(extraCols))
			for _, name := range extraCols {
				row.Extra[name] = record[colIdx[name]]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadMeasuredFile 从文件读入测量表
func ReadMeasuredFile(path string) ([]model.MeasuredRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open measured table failed: %w", err)
	}
	defer f.Close()
	return ReadMeasured(f)
}

// WriteJoined 将连接表写出为 CSV。列序：必需列、透传列（按名排序）、
// 参考统计列。无参考数据的行统计列留空。
func WriteJoined(w io.Writer, rows []model.JoinedRow) error {
	extraCols := collectExtraColumns(rows)

	header := append([]string{}, requiredColumns...)
	header = append(header, extraCols...)
	header = append(header, "MeanRI", "StdDev", "N", "Difference")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.CAS, formatFloat(r.RI), r.Name, r.File}
		for _, name := range extraCols {
			record = append(record, r.Extra[name])
		}
		if r.Summary != nil {
			record = append(record,
				formatFloat(r.Summary.MeanRI),
				formatFloat(r.Summary.StdDev),
				strconv.Itoa(r.Summary.N),
				formatFloat(r.Difference),
			)
		} else {
			record = append(record, "", "", "", "")
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJoinedFile 将连接表写入文件
func WriteJoinedFile(path string, rows []model.JoinedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file failed: %w", err)
	}
	defer f.Close()
	return WriteJoined(f, rows)
}

// collectExtraColumns 汇总所有行出现过的透传列名并排序
func collectExtraColumns(rows []model.JoinedRow) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for name := range r.Extra {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// formatFloat 数值格式化，NaN（如 N=1 时的标准差）输出为空
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
