package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"adwall/config"
)

// DSN 构建数据源名称。clientFoundRows 让 UPDATE 返回匹配行数而不是变更行数
func DSN(cfg config.DatabaseConfig, withDB bool) string {
	dbName := ""
	if withDB {
		dbName = cfg.DBName
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, dbName)
}

// NewMySQLConnection 创建一个新的MySQL连接
func NewMySQLConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	// 连接数据库
	db, err := sqlx.Connect("mysql", DSN(cfg, true))
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(25)                 // 最大打开连接数
	db.SetMaxIdleConns(10)                 // 最大空闲连接数
	db.SetConnMaxLifetime(5 * time.Minute) // 连接最大生存时间
	db.SetConnMaxIdleTime(5 * time.Minute) // 空闲连接最大生存时间

	// 验证连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return db, nil
}

// EnsureDatabase 数据库不存在时创建
func EnsureDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := sqlx.Open("mysql", DSN(cfg, false))
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.DBName)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("创建数据库失败: %w", err)
	}
	return nil
}
