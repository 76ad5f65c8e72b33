package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain/models"
)

// FavoriteRepository wraps DB access for favorite_places.
type FavoriteRepository struct {
	DB *sql.DB
}

func (r FavoriteRepository) db() (*sql.DB, error) { return sharedDB(r.DB) }

const favoriteColumns = `
	id, user_id, name, COALESCE(address,''), COALESCE(place_id,''), COALESCE(category,''),
	latitude, longitude, COALESCE(notes,''), created_at`

func scanFavorite(row scanner) (models.FavoritePlace, error) {
	var p models.FavoritePlace
	var lat, lng sql.NullFloat64
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Address, &p.PlaceID, &p.Category, &lat, &lng, &p.Notes, &p.CreatedAt)
	if err != nil {
		return models.FavoritePlace{}, err
	}
	p.Latitude = intdb.FloatPtr(lat)
	p.Longitude = intdb.FloatPtr(lng)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (r FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoritePlace, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, intdb.Rebind(`
		SELECT `+favoriteColumns+`
		FROM favorite_places
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FavoritePlace{}
	for rows.Next() {
		p, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r FavoriteRepository) GetByID(ctx context.Context, id string) (models.FavoritePlace, error) {
	db, err := r.db()
	if err != nil {
		return models.FavoritePlace{}, err
	}
	return scanFavorite(db.QueryRowContext(ctx, intdb.Rebind(`SELECT `+favoriteColumns+` FROM favorite_places WHERE id = ? LIMIT 1`), id))
}

// FindDuplicate looks for another row of the user with the same place_id,
// or the same name and address when placeID is empty. excludeID skips the
// row being updated.
func (r FavoriteRepository) FindDuplicate(ctx context.Context, userID, placeID, name, address, excludeID string) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}
	var q string
	var args []any
	if placeID != "" {
		q = `SELECT id FROM favorite_places WHERE user_id = ? AND place_id = ? AND id <> ? LIMIT 1`
		args = []any{userID, placeID, excludeID}
	} else {
		q = `SELECT id FROM favorite_places
			WHERE user_id = ? AND place_id = '' AND LOWER(name) = LOWER(?) AND LOWER(address) = LOWER(?) AND id <> ?
			LIMIT 1`
		args = []any{userID, name, address, excludeID}
	}
	var id string
	err = db.QueryRowContext(ctx, intdb.Rebind(q), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r FavoriteRepository) Create(ctx context.Context, p models.FavoritePlace) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, intdb.Rebind(`
		INSERT INTO favorite_places (
			id, user_id, name, address, place_id, category, latitude, longitude, notes, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)`),
		p.ID, p.UserID, p.Name, p.Address, p.PlaceID, p.Category,
		intdb.NullFloat(p.Latitude), intdb.NullFloat(p.Longitude), p.Notes, p.CreatedAt,
	)
	return err
}

func (r FavoriteRepository) Update(ctx context.Context, p models.FavoritePlace) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`
		UPDATE favorite_places SET
			name = ?, address = ?, place_id = ?, category = ?,
			latitude = ?, longitude = ?, notes = ?
		WHERE id = ?`),
		p.Name, p.Address, p.PlaceID, p.Category,
		intdb.NullFloat(p.Latitude), intdb.NullFloat(p.Longitude), p.Notes,
		p.ID,
	))
}

func (r FavoriteRepository) Delete(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`DELETE FROM favorite_places WHERE id = ?`), id))
}
