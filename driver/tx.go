package driver

import (
	"context"

	"github.com/reliq/reliq"
	"github.com/reliq/reliq/dialect"
	"github.com/reliq/reliq/dialect/sql"
)

// Tx is a nestable transaction handle. Only the outermost Begin/Commit pair
// opens and closes the real database/sql transaction; nested calls just
// adjust a depth counter, mirroring the original's reentrant
// Transaction.__call__ context manager (a relation method called inside an
// already-open transaction joins it instead of starting a new one).
type Tx struct {
	Conn
	tx     dialect.Tx
	depth  int
	closed bool
}

// BeginTx opens a new transaction against drv.
func BeginTx(ctx context.Context, drv *sql.Driver) (*Tx, error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: NewConn(tx), tx: tx, depth: 1}, nil
}

// Begin increments the nesting depth, joining the already-open transaction.
func (t *Tx) Begin() (*Tx, error) {
	if t.closed {
		return nil, reliq.ErrTxStarted
	}
	t.depth++
	return t, nil
}

// Commit decrements the nesting depth; the underlying transaction only
// commits once the outermost Commit call runs.
func (t *Tx) Commit() error {
	if t.closed {
		return nil
	}
	t.depth--
	if t.depth > 0 {
		return nil
	}
	t.closed = true
	return t.tx.Commit()
}

// Rollback decrements the nesting depth; the underlying transaction only
// rolls back once the outermost Rollback call runs, matching the original's
// semantics that an inner rollback still aborts the whole transaction once
// the depth reaches zero.
func (t *Tx) Rollback() error {
	if t.closed {
		return nil
	}
	t.depth--
	if t.depth > 0 {
		return nil
	}
	t.closed = true
	return t.tx.Rollback()
}

// Abort rolls back the underlying transaction immediately and resets the
// nesting depth to zero, regardless of how many Begin calls are still
// outstanding. It is the Go analogue of transaction.py's exception branch
// ("self.__level = 0; relation.model.connection.rollback()"): any error
// raised inside a nested transaction block aborts the whole transaction,
// not just the innermost level (spec §5, §7 "rollback + reset to zero on
// any thrown error"). Abort is idempotent.
func (t *Tx) Abort() error {
	if t.closed {
		return nil
	}
	t.depth = 0
	t.closed = true
	return t.tx.Rollback()
}

// Transact runs fn within a transaction, joining parent if it is already
// open or beginning a fresh one against drv otherwise. On success it calls
// Commit (which only reaches the database once the outermost call
// returns); on error from fn it calls Abort (immediate rollback, depth
// reset to zero) and returns fn's error unchanged, mirroring
// transaction.py's Transaction.__call__ decorator so that nested
// transactional verbs compose the same way the original's
// `@relation.transaction`-decorated functions do.
func Transact(ctx context.Context, drv *sql.Driver, parent *Tx, fn func(*Tx) error) (*Tx, error) {
	tx := parent
	var err error
	if tx == nil {
		tx, err = BeginTx(ctx, drv)
	} else {
		_, err = tx.Begin()
	}
	if err != nil {
		return nil, err
	}

	if err := fn(tx); err != nil {
		_ = tx.Abort()
		return tx, err
	}
	if err := tx.Commit(); err != nil {
		return tx, err
	}
	return tx, nil
}
