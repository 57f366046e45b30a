package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

const createDetectionsSQL = `
create table if not exists detections (
  id              uuid primary key,
  created_at      timestamptz not null default now(),
  channel         text not null,
  chat_id         bigint,
  requested_model text,
  model           text,
  source          text not null,
  damages_count   int not null default 0,
  error           text,
  result_json     jsonb not null
)`

const createDetectionsIndexSQL = `create index if not exists detections_chat_created_idx on detections (chat_id, created_at desc)`

// Open подключается к Postgres (pgx через database/sql) и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// EnsureSchema создаёт таблицу детекций, если её ещё нет.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createDetectionsSQL); err != nil {
		return fmt.Errorf("create detections table: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDetectionsIndexSQL); err != nil {
		return fmt.Errorf("create detections index: %w", err)
	}
	return nil
}

// SafeDSNSummary: для логов, без пароля.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
