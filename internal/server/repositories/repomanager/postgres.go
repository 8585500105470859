package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/server/migrations"
	"github.com/logm8/logmate/internal/server/repositories/keypairs"
	"github.com/logm8/logmate/internal/server/repositories/onelifes"
	"github.com/logm8/logmate/internal/server/repositories/serviceoptions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs
// the embedded goose migrations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) KeyPairs(db dbx.DBTX) keypairs.Repository {
	return keypairs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OneLifeTokens(db dbx.DBTX) onelifes.Repository {
	return onelifes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) ServiceOptions(db dbx.DBTX) serviceoptions.Repository {
	return serviceoptions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres opens a pgx-backed *sql.DB and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

