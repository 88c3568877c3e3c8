package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/ri_radar/pkg/model"
	"github.com/iWorld-y/ri_radar/pkg/rimatch"
)

// Config 项目配置结构体
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Matching  MatchingConfig  `yaml:"matching"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
}

// InputConfig 输入输出相关配置
type InputConfig struct {
	MeasuredCSV string `yaml:"measured_csv"`
	OutputDir   string `yaml:"output_dir"`
}

// MatchingConfig 匹配相关配置
type MatchingConfig struct {
	Threshold float64 `yaml:"threshold"`
	RIType    string  `yaml:"ri_type"`
	Polarity  string  `yaml:"polarity"`
}

// RetrievalConfig 参考数据检索相关配置
type RetrievalConfig struct {
	Provider       string `yaml:"provider"`      // file 或 postgres
	ReferenceCSV   string `yaml:"reference_csv"` // provider 为 file 时的转储路径
	Cache          bool   `yaml:"cache"`         // 是否把取回的记录写入数据库缓存
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	QPS            int    `yaml:"qps"`
	RPM            int    `yaml:"rpm"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig 从指定路径加载配置并校验
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = rimatch.DefaultThreshold
	}
	if c.Retrieval.TimeoutSeconds == 0 {
		c.Retrieval.TimeoutSeconds = 30
	}
	if c.Input.OutputDir == "" {
		c.Input.OutputDir = "output"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate 校验阈值与枚举值
func (c *Config) Validate() error {
	if err := rimatch.ValidateThreshold(c.Matching.Threshold); err != nil {
		return err
	}
	if _, err := model.ParseRIType(c.Matching.RIType); err != nil {
		return err
	}
	if _, err := model.ParsePolarity(c.Matching.Polarity); err != nil {
		return err
	}
	switch c.Retrieval.Provider {
	case "", "file", "postgres":
	default:
		return fmt.Errorf("unknown retrieval provider: %s", c.Retrieval.Provider)
	}
	return nil
}

// RIType 返回解析后的保留指数类型
func (c *Config) RIType() model.RIType {
	typ, _ := model.ParseRIType(c.Matching.RIType)
	return typ
}

// Polarity 返回解析后的柱极性
func (c *Config) Polarity() model.Polarity {
	pol, _ := model.ParsePolarity(c.Matching.Polarity)
	return pol
}
