package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reliq/reliq/dialect"
)

// fakeTx is a minimal dialect.Tx double that only tracks whether Commit or
// Rollback was called, so the nesting-depth logic in Tx can be exercised
// without a live database.
type fakeTx struct {
	committed, rolledBack int
}

func (f *fakeTx) Exec(context.Context, string, any, any) error { return nil }
func (f *fakeTx) Query(context.Context, string, any, any) error { return nil }
func (f *fakeTx) Tx(context.Context) (dialect.Tx, error) { return f, nil }
func (f *fakeTx) Close() error { return nil }
func (f *fakeTx) Dialect() string { return "fake" }
func (f *fakeTx) Commit() error { f.committed++; return nil }
func (f *fakeTx) Rollback() error { f.rolledBack++; return nil }

func newTestTx(f *fakeTx) *Tx {
	return &Tx{Conn: NewConn(f), tx: f, depth: 1}
}

func TestTxNestedCommitOnlyCommitsOnceAtOutermost(t *testing.T) {
	f := &fakeTx{}
	tx := newTestTx(f)

	_, err := tx.Begin()
	require.NoError(t, err)
	require.Equal(t, 2, tx.depth)

	require.NoError(t, tx.Commit())
	require.Equal(t, 0, f.committed, "inner commit must not reach the database")

	require.NoError(t, tx.Commit())
	require.Equal(t, 1, f.committed, "outermost commit reaches the database exactly once")
}

func TestTxAbortResetsDepthRegardlessOfNesting(t *testing.T) {
	f := &fakeTx{}
	tx := newTestTx(f)

	_, err := tx.Begin()
	require.NoError(t, err)
	_, err = tx.Begin()
	require.NoError(t, err)
	require.Equal(t, 3, tx.depth)

	require.NoError(t, tx.Abort())
	require.Equal(t, 1, f.rolledBack)
	require.Equal(t, 0, tx.depth)

	// Abort is idempotent: a second call does not roll back again.
	require.NoError(t, tx.Abort())
	require.Equal(t, 1, f.rolledBack)

	// Once aborted, further Begin calls report the already-started error.
	_, err = tx.Begin()
	require.Error(t, err)
}

func TestTransactCommitsOnSuccess(t *testing.T) {
	f := &fakeTx{}
	tx := newTestTx(f)

	ran := false
	_, err := Transact(context.Background(), nil, tx, func(inner *Tx) error {
		ran = true
		require.Equal(t, 2, inner.depth)
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, 0, f.committed, "the outer caller still owns the final Commit")
	require.Equal(t, 1, tx.depth)
}

func TestTransactAbortsWholeChainOnError(t *testing.T) {
	f := &fakeTx{}
	tx := newTestTx(f)
	_, _ = tx.Begin() // simulate an already-nested outer transaction, depth 2

	sentinel := errors.New("boom")
	_, err := Transact(context.Background(), nil, tx, func(inner *Tx) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, f.rolledBack)
	require.Equal(t, 0, tx.depth)
}
