package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/locvowork/employee_migration/internal/domain"
)

func TestWriteFailures(t *testing.T) {
	docs := []domain.Document{
		domain.EmployeeDoc{EmpNo: 10001},
		domain.EmployeeDoc{EmpNo: 10002},
		domain.EmployeeDoc{EmpNo: 10003},
	}
	bwe := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 1, Code: 11000, Message: "duplicate key"}},
			{WriteError: mongo.WriteError{Index: 2, Code: 121, Message: "document failed validation"}},
		},
	}

	failures := writeFailures(docs, bwe)
	require.Len(t, failures, 2)
	assert.Equal(t, domain.WriteFailure{Index: 1, DocumentID: "10002", Reason: "duplicate key"}, failures[0])
	assert.Equal(t, "10003", failures[1].DocumentID)
}

func TestClassifyInsertError(t *testing.T) {
	docs := []domain.Document{
		domain.EmployeeDoc{EmpNo: 10001},
		domain.EmployeeDoc{EmpNo: 10002},
	}
	dup := []mongo.BulkWriteError{{WriteError: mongo.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}}}

	t.Run("success", func(t *testing.T) {
		n, err := classifyInsertError("employees", docs, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("write errors are partial", func(t *testing.T) {
		wrapped := fmt.Errorf("insert: %w", mongo.BulkWriteException{WriteErrors: dup})
		n, err := classifyInsertError("employees", docs, wrapped)
		assert.Equal(t, 1, n)
		var pwe *domain.PartialWriteError
		require.ErrorAs(t, err, &pwe)
		assert.Equal(t, "employees", pwe.Collection)
		assert.Equal(t, []domain.WriteFailure{{Index: 0, DocumentID: "10001", Reason: "duplicate key"}}, pwe.Failures)
	})

	t.Run("write concern error is fatal", func(t *testing.T) {
		bwe := mongo.BulkWriteException{
			WriteErrors:       dup,
			WriteConcernError: &mongo.WriteConcernError{Code: 64, Message: "waiting for replication timed out"},
		}
		n, err := classifyInsertError("employees", docs, bwe)
		assert.Zero(t, n)
		require.Error(t, err)
		var pwe *domain.PartialWriteError
		assert.False(t, errors.As(err, &pwe))
	})

	t.Run("exception without write errors is fatal", func(t *testing.T) {
		_, err := classifyInsertError("employees", docs, mongo.BulkWriteException{})
		var pwe *domain.PartialWriteError
		assert.False(t, errors.As(err, &pwe))
	})

	t.Run("other errors are fatal", func(t *testing.T) {
		boom := errors.New("connection reset")
		n, err := classifyInsertError("employees", docs, boom)
		assert.Zero(t, n)
		require.ErrorIs(t, err, boom)
	})
}
