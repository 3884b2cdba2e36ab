// Package database はリレーショナルストアへの接続プールを開く。
//
// 本番はMySQL（github.com/go-sql-driver/mysql）、ローカル開発とテストは
// SQLite（modernc.org/sqlite）を想定する。どちらも *sqlx.DB として返す。
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// サポートするドライバ名。
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options は接続プールの設定。
type Options struct {
	// Driver はdatabase/sqlのドライバ名（"mysql" または "sqlite"）。
	Driver string
	// DSN はドライバに渡す接続文字列。
	DSN string
	// MaxOpenConns は同時に開く接続数の上限。
	MaxOpenConns int
	// MaxIdleConns はアイドル接続数の上限。
	MaxIdleConns int
	// ConnMaxLifetime は接続の最大寿命。
	ConnMaxLifetime time.Duration
	// PingTimeout は起動時の疎通確認のタイムアウト。
	PingTimeout time.Duration
}

// Open は接続プールを生成し、疎通確認まで行う。
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	switch opts.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("未対応のドライバです: %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if IsMemorySQLite(opts.Driver, opts.DSN) {
		// インメモリSQLiteは接続ごとに別のDBになる
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	return db, nil
}

// IsMemorySQLite はDSNがインメモリSQLiteを指すかどうかを返す。
func IsMemorySQLite(driver, dsn string) bool {
	return driver == DriverSQLite && strings.Contains(dsn, ":memory:")
}
