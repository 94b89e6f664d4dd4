package txmanager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
)

func TestTransactionManager_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = mgr.Do(context.Background(), func(ctx context.Context) error {
		assert.True(t, dbmetrics.IsInTransaction(ctx))
		_, execErr := dbmetrics.GetExecutor(ctx, db).ExecContext(ctx, "UPDATE bookings SET status = 'x'")
		return execErr
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))
	fnErr := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = mgr.DoSerializable(context.Background(), func(ctx context.Context) error {
		return fnErr
	})

	assert.ErrorIs(t, err, fnErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_NestedCallJoinsOuterTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = mgr.Do(context.Background(), func(ctx context.Context) error {
		return mgr.Do(ctx, func(inner context.Context) error {
			assert.True(t, dbmetrics.IsInTransaction(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_SerializationFailure(t *testing.T) {
	t.Run("On commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access due to read/write dependencies among transactions"})

		err = mgr.DoSerializable(context.Background(), func(ctx context.Context) error {
			return nil
		})

		assert.ErrorIs(t, err, ErrSerialization)
		assert.NotErrorIs(t, err, ErrCommitTx)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inside fn", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))

		mock.ExpectBegin()
		mock.ExpectRollback()

		err = mgr.DoSerializable(context.Background(), func(ctx context.Context) error {
			return fmt.Errorf("update: %w", &pq.Error{Code: "40001"})
		})

		assert.ErrorIs(t, err, ErrSerialization)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other commit error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mgr := NewTransactionManager(dbmetrics.Wrap(db, nil))

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		err = mgr.Do(context.Background(), func(ctx context.Context) error {
			return nil
		})

		assert.ErrorIs(t, err, ErrCommitTx)
		assert.NotErrorIs(t, err, ErrSerialization)
	})
}
