package db

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DatabaseParams struct {
	fx.In
	Config config.Manager
	Logger *core.Logger
}

var Module = fx.Module("db",
	fx.Options(
		fx.Provide(NewDatabase),
	),
)

func NewDatabase(lc fx.Lifecycle, params DatabaseParams) (*gorm.DB, error) {
	cfg := params.Config.Config().Core.DB

	db, err := Open(cfg, path.Dir(params.Config.ConfigFile()), params.Logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("migrating database", zap.String("type", cfg.Type))
			return Migrate(db.WithContext(ctx))
		},
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

// Open connects to the configured database. Relative sqlite paths resolve against baseDir.
func Open(cfg config.DatabaseConfig, baseDir string, rootLogger *core.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newLogger(rootLogger.Logger, rootLogger.Level()),
		TranslateError: true,
	}

	switch cfg.Type {
	case config.DatabaseTypeMySQL:
		return gorm.Open(mysql.Open(mysqlDSN(cfg)), gormConfig)
	case config.DatabaseTypePostgres:
		return gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig)
	case config.DatabaseTypeSQLite:
		dbFile := cfg.File
		if !path.IsAbs(dbFile) && baseDir != "" {
			dbFile = path.Join(baseDir, dbFile)
		}

		return gorm.Open(sqlite.Open(sqliteDSN(dbFile)), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.GetModels()...)
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.Charset)
}

func postgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC", cfg.Host, cfg.Username, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
}

func sqliteDSN(file string) string {
	if strings.Contains(file, "?") {
		return file
	}

	// Concurrent writers wait on the file lock instead of failing immediately.
	return file + "?_busy_timeout=5000&_foreign_keys=1"
}
