package factory

import (
	"fmt"

	"github.com/iWorld-y/ri_radar/pkg/config"
	"github.com/iWorld-y/ri_radar/pkg/refdump"
	"github.com/iWorld-y/ri_radar/pkg/retrieval"
	"github.com/iWorld-y/ri_radar/pkg/storage"
)

// NewSource 根据配置创建参考数据源。store 可以为 nil（未配置数据库）。
// 配置了 cache 且数据库可用时，数据源外层包一层写缓存装饰。
func NewSource(cfg *config.Config, store *storage.Storage) (retrieval.Source, error) {
	provider := cfg.Retrieval.Provider
	if provider == "" {
		// 默认回退逻辑：配置了转储文件就用 file，否则用数据库
		if cfg.Retrieval.ReferenceCSV != "" {
			provider = "file"
		} else if store != nil {
			provider = "postgres"
		} else {
			return nil, fmt.Errorf("retrieval provider not configured")
		}
	}

	var src retrieval.Source
	switch provider {
	case "file":
		if cfg.Retrieval.ReferenceCSV == "" {
			return nil, fmt.Errorf("reference csv path is missing")
		}
		src = refdump.New(cfg.Retrieval.ReferenceCSV)

	case "postgres":
		if store == nil {
			return nil, fmt.Errorf("postgres provider requires a database connection")
		}
		return storage.NewSource(store), nil

	default:
		return nil, fmt.Errorf("unknown retrieval provider: %s", provider)
	}

	if cfg.Retrieval.Cache && store != nil {
		src = storage.NewCachedSource(src, store)
	}
	return src, nil
}
