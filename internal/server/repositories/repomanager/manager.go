package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/audit"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/vaultitems"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same constructors inside and outside of transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	VaultItems(db dbx.DBTX) vaultitems.Repository
	Audit(db dbx.DBTX) audit.Repository
}
