package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iWorld-y/ri_radar/pkg/model"
)

// 参考记录转储的固定表头
var recordColumns = []string{"CAS", "RI", "Type", "Polarity", "Program"}

// ReadReferenceRecords 读入参考记录转储（file 数据源的存储格式）
func ReadReferenceRecords(r io.Reader) ([]model.RawRIRecord, error) {
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
	for _, col := range recordColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, &model.SchemaError{Column: col}
		}
	}

	var records []model.RawRIRecord
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
		typ, err := model.ParseRIType(record[colIdx["Type"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		pol, err := model.ParsePolarity(record[colIdx["Polarity"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		prog, err := model.ParseTempProgram(record[colIdx["Program"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		records = append(records, model.RawRIRecord{
			CAS:      record[colIdx["CAS"]],
			RI:       ri,
			Type:     typ,
			Polarity: pol,
			Program:  prog,
		})
	}
	return records, nil
}

// ReadReferenceRecordsFile 从文件读入参考记录转储
func ReadReferenceRecordsFile(path string) ([]model.RawRIRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference dump failed: %w", err)
	}
	defer f.Close()
	return ReadReferenceRecords(f)
}

// WriteReferenceRecords 写出参考记录转储
func WriteReferenceRecords(w io.Writer, records []model.RawRIRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordColumns); err != nil {
		return err
	}
	for _, rec := range records {
		record := []string{
			rec.CAS,
			strconv.FormatFloat(rec.RI, 'f', -1, 64),
			string(rec.Type),
			string(rec.Polarity),
			string(rec.Program),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReferenceRecordsFile 将参考记录转储写入文件
func WriteReferenceRecordsFile(path string, records []model.RawRIRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create reference dump failed: %w", err)
	}
	defer f.Close()
	return WriteReferenceRecords(f, records)
}
