package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soufianos01/sanitizer-checker/api/schemas"
)

func TestNewStoreFailsWhenPingFails(t *testing.T) {
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockPool.Close()

	pingErr := errors.New("database unavailable")
	mockPool.ExpectPing().WillReturnError(pingErr)

	_, err = New(context.Background(), mockPool, zap.NewNop())
	require.ErrorIs(t, err, pingErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPersistVerdictsCopiesEveryRow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	mockPool.ExpectCopyFrom(
		pgx.Identifier{"verdicts"},
		[]string{"field", "context", "verdict", "observed_at", "witness", "has_witness", "intersection_dot", "reason"},
	).WillReturnResult(int64(2))

	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	records := []schemas.VerdictRecord{
		{Field: "x", Context: "html-text", Verdict: schemas.VerdictSafe, ObservedAt: time.Now()},
		{Field: "x", Context: "html-attr", Verdict: schemas.VerdictVulnerable, ObservedAt: time.Now(), HasWitness: true, Witness: "\"><script>"},
	}
	require.NoError(t, s.PersistVerdicts(context.Background(), records))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPersistVerdictsNoOpOnEmptyInput(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.PersistVerdicts(context.Background(), nil))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetVerdictsByFieldScansRows(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing()
	rows := pgxmock.NewRows([]string{"field", "context", "verdict", "observed_at", "witness", "has_witness", "intersection_dot", "reason"}).
		AddRow("x", "html-text", "safe", time.Now(), "", false, "", "")
	mockPool.ExpectQuery("SELECT field, context, verdict").WithArgs("x").WillReturnRows(rows)

	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	out, err := s.GetVerdictsByField(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, schemas.VerdictSafe, out[0].Verdict)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
