package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"adwall/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// legacyAdColumns 旧版 ad 表可能缺少的列
var legacyAdColumns = []struct {
	name string
	ddl  string
}{
	{"publisher", "ALTER TABLE ad ADD COLUMN publisher VARCHAR(100) AFTER type_id"},
	{"heat", "ALTER TABLE ad ADD COLUMN heat INT DEFAULT 0 AFTER content"},
	{"landing_url", "ALTER TABLE ad ADD COLUMN landing_url VARCHAR(512) AFTER price"},
}

// Migrate 按文件名顺序执行内嵌的 SQL 迁移，所有迁移语句都是幂等的
func Migrate(ctx context.Context, db *sqlx.DB, logger *logger.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("读取迁移目录失败: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("读取迁移 %s 失败: %w", name, err)
		}
		// 驱动未开启 multiStatements，逐条执行
		for i, stmt := range SplitStatements(string(data)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("执行迁移 %s 第 %d 条语句失败: %w", name, i+1, err)
			}
		}
		logger.Info("迁移完成", "file", name)
	}

	return ensureAdColumns(ctx, db, logger)
}

// ensureAdColumns 为旧版 ad 表补齐缺失的列
func ensureAdColumns(ctx context.Context, db *sqlx.DB, logger *logger.Logger) error {
	var cols []string
	query := `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'ad'`
	if err := db.SelectContext(ctx, &cols, query); err != nil {
		return fmt.Errorf("查询 ad 表结构失败: %w", err)
	}
	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[c] = true
	}
	for _, col := range legacyAdColumns {
		if existing[col.name] {
			continue
		}
		if _, err := db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("添加列 %s 失败: %w", col.name, err)
		}
		logger.Info("已添加列", "table", "ad", "column", col.name)
	}
	return nil
}

// SplitStatements 按行尾分号切分 SQL，忽略 -- 注释行和空语句
func SplitStatements(script string) []string {
	var (
		out []string
		buf strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";"); strings.TrimSpace(stmt) != "" {
				out = append(out, stmt)
			}
			buf.Reset()
		}
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
