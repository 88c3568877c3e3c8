package storage

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/ri_radar/pkg/config"
	"github.com/iWorld-y/ri_radar/pkg/model"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reference_records (
			id SERIAL PRIMARY KEY,
			cas TEXT NOT NULL,
			ri DOUBLE PRECISION NOT NULL,
			ri_type TEXT NOT NULL,
			polarity TEXT NOT NULL,
			temp_program TEXT NOT NULL,
			fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (cas, ri, ri_type, polarity, temp_program)
		)`,
		`CREATE TABLE IF NOT EXISTS match_runs (
			id SERIAL PRIMARY KEY,
			threshold DOUBLE PRECISION NOT NULL,
			ri_type TEXT NOT NULL,
			polarity TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS match_results (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES match_runs(id),
			cas TEXT NOT NULL,
			name TEXT,
			sample_file TEXT,
			measured_ri DOUBLE PRECISION NOT NULL,
			mean_ri DOUBLE PRECISION,
			std_dev DOUBLE PRECISION,
			n INTEGER,
			difference DOUBLE PRECISION,
			category TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// SaveRecords 将取回的参考记录写入缓存，整行重复的记录跳过
func (s *Storage) SaveRecords(records []model.RawRIRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err = tx.Exec(`
			INSERT INTO reference_records (cas, ri, ri_type, polarity, temp_program)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cas, ri, ri_type, polarity, temp_program) DO NOTHING`,
			rec.CAS, rec.RI, string(rec.Type), string(rec.Polarity), string(rec.Program))
		if err != nil {
			return fmt.Errorf("failed to insert reference record: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRecords 按查询维度读出缓存中的参考记录
func (s *Storage) LoadRecords(cas string, typ model.RIType, pol model.Polarity, prog model.TempProgram) ([]model.RawRIRecord, error) {
	rows, err := s.db.Query(`
		SELECT cas, ri, ri_type, polarity, temp_program
		FROM reference_records
		WHERE cas = $1 AND ri_type = $2 AND polarity = $3 AND temp_program = $4
		ORDER BY ri`,
		cas, string(typ), string(pol), string(prog))
	if err != nil {
		return nil, fmt.Errorf("failed to query reference records: %w", err)
	}
	defer rows.Close()

	var records []model.RawRIRecord
	for rows.Next() {
		var rec model.RawRIRecord
		var typStr, polStr, progStr string
		if err := rows.Scan(&rec.CAS, &rec.RI, &typStr, &polStr, &progStr); err != nil {
			return nil, fmt.Errorf("failed to scan reference record: %w", err)
		}
		rec.Type = model.RIType(typStr)
		rec.Polarity = model.Polarity(polStr)
		rec.Program = model.TempProgram(progStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateRun 创建一次分类运行的记录，返回运行 ID
func (s *Storage) CreateRun(threshold float64, typ model.RIType, pol model.Polarity) (int, error) {
	var runID int
	err := s.db.QueryRow(`
		INSERT INTO match_runs (threshold, ri_type, polarity)
		VALUES ($1, $2, $3)
		RETURNING id`,
		threshold, string(typ), string(pol)).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match run: %w", err)
	}
	return runID, nil
}

// SaveReport 持久化一次分类的逐行结果
func (s *Storage) SaveReport(runID int, report *model.MatchReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range report.All {
		var meanRI, stdDev, diff sql.NullFloat64
		var n sql.NullInt64
		if row.Summary != nil {
			meanRI = sql.NullFloat64{Float64: row.Summary.MeanRI, Valid: true}
			if !math.IsNaN(row.Summary.StdDev) {
				stdDev = sql.NullFloat64{Float64: row.Summary.StdDev, Valid: true}
			}
			n = sql.NullInt64{Int64: int64(row.Summary.N), Valid: true}
			diff = sql.NullFloat64{Float64: row.Difference, Valid: true}
		}

		_, err = tx.Exec(`
			INSERT INTO match_results (run_id, cas, name, sample_file, measured_ri, mean_ri, std_dev, n, difference, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, row.CAS, row.Name, row.File, row.RI, meanRI, stdDev, n, diff,
			categorize(row, report.Threshold))
		if err != nil {
			return fmt.Errorf("failed to insert match result: %w", err)
		}
	}

	return tx.Commit()
}

// categorize 给持久化的结果行打上分类标签。偏差恰好等于阈值的行
// 不属于 matched 也不属于 poorly_matched，单独标记。
func categorize(row model.JoinedRow, threshold float64) string {
	switch {
	case row.Summary == nil:
		return "no_match"
	case row.Difference < threshold:
		return "matched"
	case row.Difference > threshold:
		return "poorly_matched"
	default:
		return "at_threshold"
	}
}
