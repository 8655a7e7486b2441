package trainingdata

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

const trainingQuery = `SELECT month, arrival_delay
FROM flight_data
WHERE arrival_delay IS NOT NULL AND month BETWEEN 1 AND 12
ORDER BY id
LIMIT $1`

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Loader reads (month, arrival_delay) training pairs.
type Loader struct {
	db     Querier
	logger log.Logger
}

// NewLoader returns a Loader over db.
func NewLoader(db Querier, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Loader{db: db, logger: logger.With(log.ComponentKey, "trainingdata")}
}

// Load returns up to limit samples in insertion order.
func (l *Loader) Load(ctx context.Context, limit int) ([]int, []float64, error) {
	if limit <= 0 {
		return nil, nil, errors.NewInvalidInputError("Loader.Load", "limit", "must be positive", limit)
	}

	rows, err := l.db.Query(ctx, trainingQuery, limit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query training data")
	}
	defer rows.Close()

	months := make([]int, 0, min(limit, 4096))
	delays := make([]float64, 0, min(limit, 4096))
	for rows.Next() {
		var (
			month int
			delay float64
		)
		if err := rows.Scan(&month, &delay); err != nil {
			return nil, nil, errors.Wrap(err, "scan training row")
		}
		months = append(months, month)
		delays = append(delays, delay)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "read training rows")
	}

	l.logger.Info("training data loaded", log.SamplesKey, len(months))
	return months, delays, nil
}
