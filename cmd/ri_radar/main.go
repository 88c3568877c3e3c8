package main

import (
	"context"
	"flag"
	"log"

	"github.com/iWorld-y/ri_radar/pkg/config"
	"github.com/iWorld-y/ri_radar/pkg/engine"
	"github.com/iWorld-y/ri_radar/pkg/logger"
	"github.com/iWorld-y/ri_radar/pkg/retrieval/factory"
	"github.com/iWorld-y/ri_radar/pkg/storage"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if cfg.Input.MeasuredCSV == "" {
		log.Fatal("配置错误: 未设置测量表路径 (input.measured_csv)")
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动保留指数匹配...")

	// 3. 初始化数据库连接（可选）
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 本次运行不做持久化。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	// 4. 初始化参考数据源
	src, err := factory.NewSource(cfg, store)
	if err != nil {
		logger.Log.Fatalf("参考数据源初始化失败: %v", err)
	}

	// 5. 运行匹配引擎
	eng := engine.NewEngine(cfg, store, src)
	report, err := eng.Run(context.Background(), engine.RunOptions{
		ProgressCallback: func(status string, progress int) {
			logger.Log.Debugf("进度 %d%%: %s", progress, status)
		},
	})
	if err != nil {
		logger.Log.Fatalf("匹配任务失败: %v", err)
	}

	logger.Log.Infof("完成: %d 行中 %d 行匹配良好, %d 行偏差过大, %d 行无参考数据",
		len(report.All), len(report.Matched), len(report.PoorlyMatched), len(report.NoMatch))
}
