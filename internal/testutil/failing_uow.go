package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/trackboard/internal/db"
)

// FailingUoW runs transactions on DB but makes write number FailOn (counted
// from 1 across the transaction) return Err. Reads are not counted.
type FailingUoW struct {
	DB     *sql.DB
	FailOn int
	Err    error

	// Writes is the number of writes attempted by the last transaction.
	Writes int
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	w := &failingTx{DBTX: tx, uow: u}
	u.Writes = 0
	if err := fn(ctx, w); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type failingTx struct {
	db.DBTX
	uow *FailingUoW
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.uow.Writes++
	if f.uow.Writes == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
