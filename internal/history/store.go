package history

import (
	"context"
	"fmt"
	"time"

	"farefinder/pkg/db"
	"farefinder/pkg/idgen"
)

// Record is one audit row for an executed flight search.
type Record struct {
	ID            int64     `json:"id"`
	TripType      string    `json:"trip_type"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date,omitempty"`
	Passengers    int       `json:"passengers"`
	CabinClass    string    `json:"cabin_class,omitempty"`
	ResultCount   int       `json:"result_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

type PostgresStore struct {
	executor db.SQLExecutor
	idgen    idgen.Generator
}

func NewPostgresStore(executor db.SQLExecutor, idgen idgen.Generator) *PostgresStore {
	return &PostgresStore{
		executor: executor,
		idgen:    idgen,
	}
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO search_history
			(id, trip_type, origin, destination, departure_date, return_date,
			 passengers, cabin_class, result_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.executor.ExecContext(ctx, query,
		s.idgen.GenerateID(),
		rec.TripType,
		rec.Origin,
		rec.Destination,
		rec.DepartureDate,
		rec.ReturnDate,
		rec.Passengers,
		rec.CabinClass,
		rec.ResultCount,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, trip_type, origin, destination, departure_date, return_date,
		       passengers, cabin_class, result_count, created_at
		FROM search_history
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ID,
			&rec.TripType,
			&rec.Origin,
			&rec.Destination,
			&rec.DepartureDate,
			&rec.ReturnDate,
			&rec.Passengers,
			&rec.CabinClass,
			&rec.ResultCount,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search history rows: %w", err)
	}

	return records, nil
}
