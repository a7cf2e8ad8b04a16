package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/pkg/dbmetrics"
)

type fakeTx struct {
	commitErr error

	committed  int
	rolledBack int
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.committed++
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack++
	return nil
}

type fakeBeginner struct {
	// txs выдаются по одной на каждый BeginTx
	txs    []*fakeTx
	begins int
}

func (b *fakeBeginner) BeginTx(context.Context, *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	tx := b.txs[b.begins]
	b.begins++
	return tx, nil
}

func serializationError() *pq.Error {
	return &pq.Error{
		Code:    "40001",
		Message: "could not serialize access due to read/write dependencies among transactions",
	}
}

func TestDoSerializable_RetriesAfterSerializationFailure(t *testing.T) {
	// Первый commit обрывается по 40001; повтор замыкания видит уже
	// занятое состояние и возвращает доменную ошибку
	errBusy := errors.New("provider is busy")
	beginner := &fakeBeginner{txs: []*fakeTx{
		{commitErr: serializationError()},
		{},
	}}

	calls := 0
	err := NewTransactionManager(beginner).DoSerializable(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return nil
		}
		return errBusy
	})

	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, beginner.begins)
	assert.Equal(t, 1, beginner.txs[1].rolledBack)
}

func TestDoSerializable_RetrySucceeds(t *testing.T) {
	beginner := &fakeBeginner{txs: []*fakeTx{
		{commitErr: serializationError()},
		{},
	}}

	calls := 0
	err := NewTransactionManager(beginner).DoSerializable(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, beginner.txs[1].committed)
}

func TestDoSerializable_RetriesAreBounded(t *testing.T) {
	beginner := &fakeBeginner{txs: []*fakeTx{
		{commitErr: serializationError()},
		{commitErr: serializationError()},
		{commitErr: serializationError()},
		{},
	}}

	err := NewTransactionManager(beginner).DoSerializable(context.Background(), func(context.Context) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, IsSerializationFailure(err))
	assert.Equal(t, maxSerializationAttempts, beginner.begins)
}

func TestDoSerializable_OtherErrorsNotRetried(t *testing.T) {
	t.Run("commit error", func(t *testing.T) {
		beginner := &fakeBeginner{txs: []*fakeTx{
			{commitErr: errors.New("connection reset")},
		}}

		err := NewTransactionManager(beginner).DoSerializable(context.Background(), func(context.Context) error {
			return nil
		})

		require.Error(t, err)
		assert.Equal(t, 1, beginner.begins)
	})

	t.Run("closure error", func(t *testing.T) {
		errDomain := errors.New("booking not found")
		beginner := &fakeBeginner{txs: []*fakeTx{{}}}

		calls := 0
		err := NewTransactionManager(beginner).DoSerializable(context.Background(), func(context.Context) error {
			calls++
			return errDomain
		})

		assert.ErrorIs(t, err, errDomain)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, beginner.txs[0].rolledBack)
	})
}

func TestIsSerializationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq 40001", serializationError(), true},
		{"wrapped pq 40001", fmt.Errorf("txmanager: commit transaction: %w", serializationError()), true},
		{"flattened repo wrap keeps the driver message",
			fmt.Errorf("exec query: %v", serializationError()), true},
		{"other pq error", &pq.Error{Code: "23505", Message: "duplicate key"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSerializationFailure(tt.err))
		})
	}
}
