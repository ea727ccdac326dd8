package testenv

import (
	"context"
	"os"
	"testing"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DatabaseURL is the environment variable pointing test runs at a
// disposable postgres database with the datapress schema applied.
//
// When unset, tests needing a database are skipped.
const DatabaseURL = "DATAPRESS_TEST_DB"

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) dpool.Pool {
	t.Cleanup(func() {
		t.Helper()
		ClearTables(ctx, p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return dpool.Wrap(p.pool)
}

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) dpool.Pool
}

// NewPoolBroaker returns a PoolBroaker connected to the database named
// by the DATAPRESS_TEST_DB environment variable.
//
// When the variable is unset, t is skipped.
func NewPoolBroaker(ctx context.Context, t *testing.T) PoolBroaker {
	t.Helper()

	url := os.Getenv(DatabaseURL)
	if url == "" {
		t.Skipf("%s is not set. skipped.", DatabaseURL)
	}

	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	return &pg{pool: pool}
}

func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("fail to clean-up tables.: %v", err)
	}
	defer conn.Release()

	for _, command := range []string{
		`truncate "organisations" RESTART IDENTITY cascade`,
		`truncate "canonical_schemas" RESTART IDENTITY cascade`,
		// by cascade, all rows in dependent tables should be deleted.
	} {
		_, err = conn.Exec(ctx, command)
		if err != nil {
			t.Errorf("fail to clean-up tables.: %v", err)
		}
	}
}
