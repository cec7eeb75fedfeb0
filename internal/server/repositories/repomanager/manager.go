package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/trackmeta/internal/dbx"
	"github.com/dmitrijs2005/trackmeta/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle or transaction
// and owns the schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
