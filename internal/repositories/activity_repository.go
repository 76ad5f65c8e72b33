package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain/models"
)

// ActivityRepository wraps DB access for activities.
type ActivityRepository struct {
	DB *sql.DB
}

func (r ActivityRepository) db() (*sql.DB, error) { return sharedDB(r.DB) }

const activityColumns = `
	id, itinerary_id, day_number, position, title,
	COALESCE(description,''), COALESCE(location,''), COALESCE(start_time,''),
	duration_minutes, cost_min, cost_max, currency, category,
	latitude, longitude, created_at, updated_at`

func scanActivity(row scanner) (models.Activity, error) {
	var a models.Activity
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&a.ID, &a.ItineraryID, &a.DayNumber, &a.Position, &a.Title,
		&a.Description, &a.Location, &a.StartTime,
		&a.DurationMinutes, &a.CostMin, &a.CostMax, &a.Currency, &a.Category,
		&lat, &lng, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return models.Activity{}, err
	}
	a.Latitude = intdb.FloatPtr(lat)
	a.Longitude = intdb.FloatPtr(lng)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func insertActivity(ctx context.Context, ex execer, a models.Activity) error {
	_, err := ex.ExecContext(ctx, intdb.Rebind(`
		INSERT INTO activities (
			id, itinerary_id, day_number, position, title, description, location,
			start_time, duration_minutes, cost_min, cost_max, currency, category,
			latitude, longitude, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		a.ID, a.ItineraryID, a.DayNumber, a.Position, a.Title, a.Description, a.Location,
		a.StartTime, a.DurationMinutes, a.CostMin, a.CostMax, a.Currency, a.Category,
		intdb.NullFloat(a.Latitude), intdb.NullFloat(a.Longitude), a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// writePositions stores day/position for each activity.
func writePositions(ctx context.Context, ex execer, acts []models.Activity, now time.Time) error {
	for _, a := range acts {
		err := mustAffect(ex.ExecContext(ctx, intdb.Rebind(`
			UPDATE activities SET day_number = ?, position = ?, updated_at = ? WHERE id = ?`),
			a.DayNumber, a.Position, now, a.ID))
		if err != nil {
			return fmt.Errorf("reposition activity %s: %w", a.ID, err)
		}
	}
	return nil
}

// ListByItinerary returns activities in day/position order.
func (r ActivityRepository) ListByItinerary(ctx context.Context, itineraryID string) ([]models.Activity, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, intdb.Rebind(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE itinerary_id = ?
		ORDER BY day_number, position, title, id`), itineraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID returns sql.ErrNoRows for unknown ids.
func (r ActivityRepository) GetByID(ctx context.Context, id string) (models.Activity, error) {
	db, err := r.db()
	if err != nil {
		return models.Activity{}, err
	}
	row := db.QueryRowContext(ctx, intdb.Rebind(`SELECT `+activityColumns+` FROM activities WHERE id = ? LIMIT 1`), id)
	return scanActivity(row)
}

func (r ActivityRepository) Create(ctx context.Context, a models.Activity) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return insertActivity(ctx, db, a)
}

// Update writes a's fields and, in the same transaction, the positions of
// siblings that shifted because a changed day.
func (r ActivityRepository) Update(ctx context.Context, a models.Activity, shifted []models.Activity) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		err := mustAffect(tx.ExecContext(ctx, intdb.Rebind(`
			UPDATE activities SET
				day_number = ?, position = ?, title = ?, description = ?, location = ?,
				start_time = ?, duration_minutes = ?, cost_min = ?, cost_max = ?,
				currency = ?, category = ?, latitude = ?, longitude = ?, updated_at = ?
			WHERE id = ?`),
			a.DayNumber, a.Position, a.Title, a.Description, a.Location,
			a.StartTime, a.DurationMinutes, a.CostMin, a.CostMax,
			a.Currency, a.Category, intdb.NullFloat(a.Latitude), intdb.NullFloat(a.Longitude), a.UpdatedAt,
			a.ID,
		))
		if err != nil {
			return err
		}
		return writePositions(ctx, tx, shifted, a.UpdatedAt)
	})
}

// Delete removes one activity and rewrites the positions of the siblings that moved up.
func (r ActivityRepository) Delete(ctx context.Context, id string, shifted []models.Activity, now time.Time) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if err := mustAffect(tx.ExecContext(ctx, intdb.Rebind(`DELETE FROM activities WHERE id = ?`), id)); err != nil {
			return err
		}
		return writePositions(ctx, tx, shifted, now)
	})
}

// UpdatePositions writes a reorder in one transaction. Only pass the rows
// whose day or position actually changed.
func (r ActivityRepository) UpdatePositions(ctx context.Context, changed []models.Activity, now time.Time) error {
	if len(changed) == 0 {
		return nil
	}
	db, err := r.db()
	if err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		return writePositions(ctx, tx, changed, now)
	})
}
