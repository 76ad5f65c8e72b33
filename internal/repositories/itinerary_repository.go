package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain/models"
)

// ItineraryRepository wraps DB access for itineraries.
type ItineraryRepository struct {
	DB *sql.DB
}

func (r ItineraryRepository) db() (*sql.DB, error) { return sharedDB(r.DB) }

const itineraryColumns = `
	id, user_id, title, destination,
	COALESCE(start_date,''), COALESCE(end_date,''),
	travelers, budget, pace,
	COALESCE(interests,'[]'), COALESCE(notes,''), COALESCE(cover_image_url,''),
	status, COALESCE(generation_error,''),
	created_at, updated_at`

func scanItinerary(row scanner) (models.Itinerary, error) {
	var it models.Itinerary
	var interests string
	err := row.Scan(
		&it.ID, &it.UserID, &it.Title, &it.Destination,
		&it.StartDate, &it.EndDate,
		&it.Travelers, &it.Budget, &it.Pace,
		&interests, &it.Notes, &it.CoverImageURL,
		&it.Status, &it.GenerationError,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return models.Itinerary{}, err
	}
	it.Interests = decodeStrings(interests)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it, nil
}

// Create inserts it. ID and timestamps are set by the caller.
func (r ItineraryRepository) Create(ctx context.Context, it models.Itinerary) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	interests, err := encodeJSON(it.Interests)
	if err != nil {
		return fmt.Errorf("encode interests: %w", err)
	}
	_, err = db.ExecContext(ctx, intdb.Rebind(`
		INSERT INTO itineraries (
			id, user_id, title, destination, start_date, end_date,
			travelers, budget, pace, interests, notes, cover_image_url,
			status, generation_error, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		it.ID, it.UserID, it.Title, it.Destination, it.StartDate, it.EndDate,
		it.Travelers, it.Budget, it.Pace, interests, it.Notes, it.CoverImageURL,
		it.Status, it.GenerationError, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

// GetByID returns sql.ErrNoRows when the itinerary does not exist.
func (r ItineraryRepository) GetByID(ctx context.Context, id string) (models.Itinerary, error) {
	db, err := r.db()
	if err != nil {
		return models.Itinerary{}, err
	}
	row := db.QueryRowContext(ctx, intdb.Rebind(`SELECT `+itineraryColumns+` FROM itineraries WHERE id = ? LIMIT 1`), id)
	return scanItinerary(row)
}

// ListByUser returns a page of the user's itineraries, newest first, and the total count.
func (r ItineraryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Itinerary, int, error) {
	db, err := r.db()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := db.QueryRowContext(ctx, intdb.Rebind(`SELECT COUNT(*) FROM itineraries WHERE user_id = ?`), userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := db.QueryContext(ctx, intdb.Rebind(`
		SELECT `+itineraryColumns+`
		FROM itineraries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`), userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Itinerary{}
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// ErrGenerating is returned by Update while a generation owns the itinerary.
var ErrGenerating = errors.New("itinerary generation in progress")

// Update writes the editable fields and updated_at unless a generation is
// running, and stores the day/position of the shifted activities in the same
// transaction.
func (r ItineraryRepository) Update(ctx context.Context, it models.Itinerary, shifted []models.Activity) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	interests, err := encodeJSON(it.Interests)
	if err != nil {
		return fmt.Errorf("encode interests: %w", err)
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		err := mustAffect(tx.ExecContext(ctx, intdb.Rebind(`
			UPDATE itineraries SET
				title = ?, destination = ?, start_date = ?, end_date = ?,
				travelers = ?, budget = ?, pace = ?, interests = ?, notes = ?,
				cover_image_url = ?, updated_at = ?
			WHERE id = ? AND status <> ?`),
			it.Title, it.Destination, it.StartDate, it.EndDate,
			it.Travelers, it.Budget, it.Pace, interests, it.Notes,
			it.CoverImageURL, it.UpdatedAt,
			it.ID, models.StatusGenerating,
		))
		if errors.Is(err, sql.ErrNoRows) {
			var status string
			if err := tx.QueryRowContext(ctx, intdb.Rebind(`SELECT status FROM itineraries WHERE id = ?`), it.ID).Scan(&status); err != nil {
				return err
			}
			return ErrGenerating
		}
		if err != nil {
			return err
		}
		return writePositions(ctx, tx, shifted, it.UpdatedAt)
	})
}

// Delete removes the itinerary and its activities.
func (r ItineraryRepository) Delete(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, intdb.Rebind(`DELETE FROM activities WHERE itinerary_id = ?`), id); err != nil {
			return err
		}
		return mustAffect(tx.ExecContext(ctx, intdb.Rebind(`DELETE FROM itineraries WHERE id = ?`), id))
	})
}

// BeginGeneration flips the itinerary to generating unless it already is.
// It reports false when another generation is in progress.
func (r ItineraryRepository) BeginGeneration(ctx context.Context, id string, now time.Time) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, intdb.Rebind(`
		UPDATE itineraries
		SET status = ?, generation_error = '', updated_at = ?
		WHERE id = ? AND status <> ?`),
		models.StatusGenerating, now, id, models.StatusGenerating)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetStatus records a status and generation error message.
func (r ItineraryRepository) SetStatus(ctx context.Context, id, status, genErr string, now time.Time) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`
		UPDATE itineraries SET status = ?, generation_error = ?, updated_at = ? WHERE id = ?`),
		status, genErr, now, id))
}

// CompleteGeneration replaces all activities of the itinerary and marks it
// ready in one transaction.
func (r ItineraryRepository) CompleteGeneration(ctx context.Context, id string, acts []models.Activity, now time.Time) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, intdb.Rebind(`DELETE FROM activities WHERE itinerary_id = ?`), id); err != nil {
			return fmt.Errorf("clear activities: %w", err)
		}
		for _, a := range acts {
			if err := insertActivity(ctx, tx, a); err != nil {
				return fmt.Errorf("insert activity: %w", err)
			}
		}
		return mustAffect(tx.ExecContext(ctx, intdb.Rebind(`
			UPDATE itineraries SET status = ?, generation_error = '', updated_at = ? WHERE id = ?`),
			models.StatusReady, now, id))
	})
}

// FailStaleGenerations marks rows stuck in generating since before cutoff as
// failed, leaving the ids in skip alone.
func (r ItineraryRepository) FailStaleGenerations(ctx context.Context, cutoff, now time.Time, msg string, skip []string) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	query := `
		UPDATE itineraries
		SET status = ?, generation_error = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`
	args := []any{models.StatusFailed, msg, now, models.StatusGenerating, cutoff}
	if len(skip) > 0 {
		query += ` AND id NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(skip)), ",") + `)`
		for _, id := range skip {
			args = append(args, id)
		}
	}
	res, err := db.ExecContext(ctx, intdb.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
