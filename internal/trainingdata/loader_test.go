package trainingdata

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

type sample struct {
	month int
	delay float64
}

// fakeRows implements pgx.Rows over in-memory samples.
type fakeRows struct {
	data    []sample
	pos     int
	scanErr error
	err     error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	s := r.data[r.pos-1]
	*dest[0].(*int) = s.month
	*dest[1].(*float64) = s.delay
	return nil
}

type fakeQuerier struct {
	rows     *fakeRows
	queryErr error
	sql      string
	args     []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func newLoader(q Querier) *Loader {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return NewLoader(q, logger)
}

func TestLoaderLoad(t *testing.T) {
	rows := &fakeRows{data: []sample{{1, 10}, {2, 20.5}, {3, -4}}}
	q := &fakeQuerier{rows: rows}

	months, delays, err := newLoader(q).Load(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, months)
	assert.Equal(t, []float64{10, 20.5, -4}, delays)
	assert.True(t, rows.closed)
	assert.Equal(t, []any{100}, q.args)
	assert.Contains(t, q.sql, "arrival_delay IS NOT NULL")
}

func TestLoaderEmptyResult(t *testing.T) {
	months, delays, err := newLoader(&fakeQuerier{rows: &fakeRows{}}).Load(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, months)
	assert.Empty(t, delays)
}

func TestLoaderErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := newLoader(&fakeQuerier{}).Load(ctx, 0)
	assert.True(t, errors.IsInvalidInput(err))

	_, _, err = newLoader(&fakeQuerier{queryErr: errors.New("connection refused")}).Load(ctx, 10)
	assert.ErrorContains(t, err, "query training data")

	_, _, err = newLoader(&fakeQuerier{rows: &fakeRows{data: []sample{{1, 1}}, scanErr: errors.New("bad type")}}).Load(ctx, 10)
	assert.ErrorContains(t, err, "scan training row")

	_, _, err = newLoader(&fakeQuerier{rows: &fakeRows{err: errors.New("reset by peer")}}).Load(ctx, 10)
	assert.ErrorContains(t, err, "read training rows")
}

func TestNewPoolRejectsEmptyURL(t *testing.T) {
	_, err := NewPool(context.Background(), "", 4)
	assert.Error(t, err)

	_, err = NewPool(context.Background(), "postgres://%zz", 4)
	assert.Error(t, err)
}
