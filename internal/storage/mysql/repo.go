package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"rental_yield/internal/domain"
)

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) UpsertRentRow(ctx context.Context, row domain.RentRow, source string) error {
	_, err := r.db.ExecContext(ctx, upsertRentRowSQL,
		string(row.Bedrooms),
		row.CityCentre,
		row.WestEnd,
		source,
	)
	return err
}

// SeedRentRows writes rows in one statement. Existing rows from another
// source are left alone.
func (r *Repo) SeedRentRows(ctx context.Context, rows []domain.RentRow, source string) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*4) // 4 params per row
	for _, row := range rows {
		values = append(values, "(?,?,?,?)")
		args = append(args,
			string(row.Bedrooms), // bedrooms
			row.CityCentre,       // city_centre
			row.WestEnd,          // west_end
			source,               // source
		)
	}
	sqlStr := insertRentRowsPrefix + strings.Join(values, ",") + insertRentRowsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, b domain.BedroomCategory, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, string(b), status, reason)
	return err
}

func (r *Repo) SaveCalculation(ctx context.Context, rec domain.CalculationRecord) error {
	_, err := r.db.ExecContext(ctx, insertCalculationSQL,
		rec.ID,
		rec.Kind,
		valJSON(rec.InputJSON),
		valJSON(rec.OutputJSON),
		rec.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) ListRentRows(ctx context.Context) ([]domain.RentRow, error) {
	rows, err := r.db.QueryContext(ctx, listRentRowsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RentRow
	for rows.Next() {
		var row domain.RentRow
		var beds string
		if err := rows.Scan(&beds, &row.CityCentre, &row.WestEnd); err != nil {
			return nil, err
		}
		row.Bedrooms = domain.BedroomCategory(beds)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetCalculation(ctx context.Context, id string) (domain.CalculationRecord, error) {
	var rec domain.CalculationRecord
	var in, out []byte
	row := r.db.QueryRowContext(ctx, getCalculationSQL, id)
	if err := row.Scan(&rec.ID, &rec.Kind, &in, &out, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalculationRecord{}, domain.ErrNotFound
		}
		return domain.CalculationRecord{}, err
	}
	rec.InputJSON, rec.OutputJSON = in, out
	return rec, nil
}
