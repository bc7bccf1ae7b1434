package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect は接続先データベースの種類を表す。
type Dialect string

const (
	// DialectPostgres はlib/pqドライバで接続するPostgreSQL。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はmodernc.org/sqliteドライバで接続する組み込みSQLite。
	DialectSQLite Dialect = "sqlite"
)

const sqliteScheme = "sqlite://"

// DialectOf はデータベースURLのスキームから方言を判定する。
func DialectOf(databaseURL string) (Dialect, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(databaseURL, sqliteScheme):
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme: %s", schemeOf(databaseURL))
	}
}

// schemeOf はエラーメッセージ用にスキーム部分だけを返す。認証情報はメッセージに含めない。
func schemeOf(databaseURL string) string {
	if scheme, _, ok := strings.Cut(databaseURL, "://"); ok {
		return scheme
	}
	return "(none)"
}

// Open はデータベースURLに応じたドライバで接続を開く。
//   - postgres:// または postgresql:// はlib/pqを使用する。
//   - sqlite://<path> はmodernc.org/sqliteを使用し、親ディレクトリを作成する。
//
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	dialect, err := DialectOf(databaseURL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectSQLite:
		return openSQLite(strings.TrimPrefix(databaseURL, sqliteScheme))
	default:
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}
}

// openSQLite はSQLiteファイルを開き、全コネクションにWALとbusy_timeoutを適用する。
func openSQLite(path string) (*sql.DB, error) {
	file := path
	if i := strings.Index(file, "?"); i >= 0 {
		file = file[:i]
	}
	if file != "" && file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	return db, nil
}
