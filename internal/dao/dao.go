package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/Malowking/ragchat/core/config"
	apperrors "github.com/Malowking/ragchat/core/errors"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB 初始化数据库连接并执行迁移
func InitDB(ctx context.Context, cfg *config.DatabaseConfig) error {
	conn, err := initDatabase(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseInit, err, "failed to initialize database")
	}
	db = conn
	g.Log().Infof(ctx, "Database connected: %s %s:%s/%s", cfg.Type, cfg.Host, cfg.Port, cfg.Name)
	return nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	if db == nil {
		g.Log().Fatal(gctx.New(), "database connection not initialized")
	}
	return db
}

// CloseDB 关闭数据库连接
func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// buildDSN 构建数据库连接字符串
func buildDSN(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Type {
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name, charset), nil
	case "postgresql", "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Pass, cfg.Name, cfg.Port), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// initDatabase 根据配置选择驱动并初始化连接池
func initDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build DSN: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var conn *gorm.DB
	switch cfg.Type {
	case "mysql":
		conn, err = gorm.Open(mysql.Open(dsn), gormConfig)
	default:
		conn, err = gorm.Open(postgres.Open(dsn), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = gormModel.Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to migrate database tables: %w", err)
	}
	return conn, nil
}
