package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock — session-level pg advisory lock на выделенном соединении.
//
// Lock живёт, пока жива сессия, поэтому соединение не возвращается
// в пул до Release.
type AdvisoryLock struct {
	conn *pgxpool.Conn
	key  int64
}

// TryAdvisoryLock пытается взять lock key.
// Возвращает nil без ошибки, если lock держит другая сессия.
func TryAdvisoryLock(ctx context.Context, pool *pgxpool.Pool, key int64) (*AdvisoryLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, nil
	}

	return &AdvisoryLock{conn: conn, key: key}, nil
}

// Ping проверяет, что сессия с lock'ом жива.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.conn.Ping(ctx)
}

// Release снимает lock и освобождает соединение.
// Соединение, на котором unlock не прошёл, закрывается: иначе сессия
// вернулась бы в пул вместе с lock'ом.
func (l *AdvisoryLock) Release(ctx context.Context) {
	if _, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key); err != nil {
		l.conn.Conn().Close(ctx)
	}
	l.conn.Release()
}
