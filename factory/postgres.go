package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guileen/respool/pool"
)

// Postgres is a pool.ResourceFactory producing PostgreSQL sessions via pgx.
// Handles are *pgx.Conn values.
type Postgres struct {
	connString   string
	closeTimeout time.Duration
}

// NewPostgres creates a PostgreSQL session factory for the given connection
// string (URL or DSN form).
func NewPostgres(connString string) *Postgres {
	return &Postgres{
		connString:   connString,
		closeTimeout: 5 * time.Second,
	}
}

// Create opens a new session
func (f *Postgres) Create(ctx context.Context) (any, error) {
	conn, err := pgx.Connect(ctx, f.connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

// Probe pings the backend over the session
func (f *Postgres) Probe(ctx context.Context, handle any) error {
	conn, ok := handle.(*pgx.Conn)
	if !ok {
		return fmt.Errorf("unexpected handle type %T", handle)
	}
	return conn.Ping(ctx)
}

// Close ends the session, bounded so a dead backend cannot hang shutdown
func (f *Postgres) Close(handle any) error {
	conn, ok := handle.(*pgx.Conn)
	if !ok {
		return fmt.Errorf("unexpected handle type %T", handle)
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.closeTimeout)
	defer cancel()
	return conn.Close(ctx)
}

var _ pool.ResourceFactory = (*Postgres)(nil)
