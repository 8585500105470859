// Package repomanager vends repositories bound to a dbx.DBTX so that
// services can run them against a pool or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/server/repositories/keypairs"
	"github.com/logm8/logmate/internal/server/repositories/onelifes"
	"github.com/logm8/logmate/internal/server/repositories/serviceoptions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	KeyPairs(db dbx.DBTX) keypairs.Repository
	OneLifeTokens(db dbx.DBTX) onelifes.Repository
	ServiceOptions(db dbx.DBTX) serviceoptions.Repository
}
