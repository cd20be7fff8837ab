// Package state 用 SQLite 记录已完成的视频分析，重复运行时跳过已分析
// 的文件。键是 (路径, 体积)：体积变了视为新文件，重新分析。
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record 是一条已落库的分析结果。
type Record struct {
	Path        string
	Size        int64
	IsKungFu    bool
	Description string
	AnalyzedAt  time.Time
}

// Store 封装单个 SQLite 文件。并发由 database/sql 连接池处理，
// 分析阶段本身是串行的，这里不额外加锁。
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS analyzed (
	path        TEXT    NOT NULL,
	size        INTEGER NOT NULL,
	is_kungfu   INTEGER NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	analyzed_at TEXT    NOT NULL,
	PRIMARY KEY (path, size)
);
`

// Open 打开（必要时创建）状态库并确保表结构存在。
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("打开状态库 %q 失败：%w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化状态库 %q 失败：%w", path, err)
	}
	return &Store{db: db}, nil
}

// Lookup 查询 (path, size) 是否已分析。
func (s *Store) Lookup(path string, size int64) (Record, bool, error) {
	row := s.db.QueryRow(
		`SELECT is_kungfu, description, analyzed_at FROM analyzed WHERE path = ? AND size = ?`,
		path, size,
	)

	var (
		kungfu int
		desc   string
		at     string
	)
	if err := row.Scan(&kungfu, &desc, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	rec := Record{Path: path, Size: size, IsKungFu: kungfu != 0, Description: desc}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		rec.AnalyzedAt = t
	}
	return rec, true, nil
}

// Mark 落库一条分析结果；同键重写覆盖旧值。
func (s *Store) Mark(path string, size int64, isKungFu bool, description string) error {
	kungfu := 0
	if isKungFu {
		kungfu = 1
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO analyzed (path, size, is_kungfu, description, analyzed_at) VALUES (?, ?, ?, ?, ?)`,
		path, size, kungfu, description, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Close 关闭状态库。
func (s *Store) Close() error { return s.db.Close() }
