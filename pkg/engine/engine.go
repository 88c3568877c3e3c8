package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iWorld-y/ri_radar/pkg/config"
	"github.com/iWorld-y/ri_radar/pkg/logger"
	"github.com/iWorld-y/ri_radar/pkg/model"
	"github.com/iWorld-y/ri_radar/pkg/retrieval"
	"github.com/iWorld-y/ri_radar/pkg/rimatch"
	"github.com/iWorld-y/ri_radar/pkg/storage"
	"github.com/iWorld-y/ri_radar/pkg/tableio"
)

// Engine 核心处理引擎：读测量表、取参考记录、分类、落库、写出结果
type Engine struct {
	cfg     *config.Config
	store   *storage.Storage
	fetcher *retrieval.Fetcher
}

// NewEngine 创建引擎实例。store 为 nil 时跳过持久化。
func NewEngine(cfg *config.Config, store *storage.Storage, src retrieval.Source) *Engine {
	fetcher := retrieval.NewFetcher(src, retrieval.Options{
		Timeout:        time.Duration(cfg.Retrieval.TimeoutSeconds) * time.Second,
		QPS:            cfg.Retrieval.QPS,
		RPM:            cfg.Retrieval.RPM,
		MaxConcurrency: cfg.Retrieval.MaxConcurrency,
	})
	return &Engine{cfg: cfg, store: store, fetcher: fetcher}
}

// RunOptions 运行选项，零值字段回退到配置文件
type RunOptions struct {
	MeasuredCSV      string
	OutputDir        string
	Threshold        float64
	Type             model.RIType
	Polarity         model.Polarity
	ProgressCallback func(status string, progress int)
}

// 各视图写出的文件名
var viewFiles = map[string]func(*model.MatchReport) []model.JoinedRow{
	"all.csv":              func(r *model.MatchReport) []model.JoinedRow { return r.All },
	"matched.csv":          func(r *model.MatchReport) []model.JoinedRow { return r.Matched },
	"poorly_matched.csv":   func(r *model.MatchReport) []model.JoinedRow { return r.PoorlyMatched },
	"no_match.csv":         func(r *model.MatchReport) []model.JoinedRow { return r.NoMatch },
	"poor_or_no_match.csv": func(r *model.MatchReport) []model.JoinedRow { return r.PoorOrNoMatch },
	"with_reference.csv":   func(r *model.MatchReport) []model.JoinedRow { return r.WithReference },
}

// Run 执行一次完整的匹配任务
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*model.MatchReport, error) {
	progress := opts.ProgressCallback
	if progress == nil {
		progress = func(string, int) {}
	}
	e.fillDefaults(&opts)

	if err := rimatch.ValidateThreshold(opts.Threshold); err != nil {
		return nil, err
	}

	// 1. 读入测量表
	progress("loading measured table", 0)
	measured, err := tableio.ReadMeasuredFile(opts.MeasuredCSV)
	if err != nil {
		return nil, fmt.Errorf("load measured table failed: %w", err)
	}
	logger.Log.Infof("读入测量表 %s: %d 行", opts.MeasuredCSV, len(measured))

	// 2. 取回参考记录。部分失败时继续用已取得的记录，
	//    完全失败则直接上抛 RetrievalError。
	progress("fetching reference data", 10)
	casIDs := make([]string, 0, len(measured))
	for _, m := range measured {
		casIDs = append(casIDs, m.CAS)
	}

	records, err := e.fetcher.FetchAll(ctx, casIDs, opts.Type, opts.Polarity)
	if err != nil {
		var rerr *retrieval.RetrievalError
		if !errors.As(err, &rerr) || len(records) == 0 {
			return nil, err
		}
		logger.Log.Warnf("参考数据检索部分失败，继续使用已取得的 %d 条记录: %v", len(records), err)
	}
	logger.Log.Infof("取得参考记录 %d 条", len(records))

	// 3. 汇总、连接并分类
	progress("classifying", 60)
	report, err := rimatch.Classify(measured, records, opts.Threshold)
	if err != nil {
		return nil, err
	}
	report.Type = opts.Type
	report.Polarity = opts.Polarity
	logger.Log.WithFields(map[string]interface{}{
		"matched":          len(report.Matched),
		"poorly_matched":   len(report.PoorlyMatched),
		"no_match":         len(report.NoMatch),
		"poor_or_no_match": len(report.PoorOrNoMatch),
		"with_reference":   len(report.WithReference),
		"total":            len(report.All),
	}).Info("分类完成")

	// 4. 持久化本次运行
	if e.store != nil {
		progress("saving run", 75)
		runID, err := e.store.CreateRun(opts.Threshold, opts.Type, opts.Polarity)
		if err != nil {
			logger.Log.Errorf("无法创建运行记录: %v", err)
		} else if err := e.store.SaveReport(runID, report); err != nil {
			logger.Log.Errorf("保存分类结果失败 [run=%d]: %v", runID, err)
		}
	}

	// 5. 写出各视图 CSV
	progress("writing output", 85)
	if err := e.writeViews(opts.OutputDir, report); err != nil {
		return nil, err
	}

	progress("completed", 100)
	return report, nil
}

func (e *Engine) fillDefaults(opts *RunOptions) {
	if opts.MeasuredCSV == "" {
		opts.MeasuredCSV = e.cfg.Input.MeasuredCSV
	}
	if opts.OutputDir == "" {
		opts.OutputDir = e.cfg.Input.OutputDir
	}
	if opts.Threshold == 0 {
		opts.Threshold = e.cfg.Matching.Threshold
	}
	if opts.Type == "" {
		opts.Type = e.cfg.RIType()
	}
	if opts.Polarity == "" {
		opts.Polarity = e.cfg.Polarity()
	}
}

func (e *Engine) writeViews(outputDir string, report *model.MatchReport) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory failed: %w", err)
	}
	for name, view := range viewFiles {
		path := filepath.Join(outputDir, name)
		if err := tableio.WriteJoinedFile(path, view(report)); err != nil {
			return fmt.Errorf("write %s failed: %w", name, err)
		}
	}
	logger.Log.Infof("结果已写入 %s", outputDir)
	return nil
}
