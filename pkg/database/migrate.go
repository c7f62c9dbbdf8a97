package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// 排班与考勤表结构随二进制发布，启动时对齐到最新版本
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 将数据库迁移到嵌入的最新版本。
// 已是最新时静默通过；dirty 状态只告警，由运维人工介入
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", upErr)
	}

	version, dirty, _ := m.Version()
	switch {
	case dirty:
		logger.Warn("数据库迁移处于 dirty 状态，需人工修复", zap.Uint("version", version))
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info("数据库表结构已是最新", zap.Uint("version", version))
	default:
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}
