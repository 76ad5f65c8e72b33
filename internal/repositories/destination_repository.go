package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain/models"
)

// DestinationRepository reads the destinations catalog.
type DestinationRepository struct {
	DB *sql.DB
}

// List filters by a name/country substring and exact country. A missing
// table yields an empty list.
func (r DestinationRepository) List(ctx context.Context, search, country string, limit int) ([]models.Destination, error) {
	db, err := sharedDB(r.DB)
	if err != nil {
		return nil, err
	}
	if !intdb.HasTable(ctx, db, "destinations") {
		return []models.Destination{}, nil
	}

	where := []string{"1=1"}
	args := []any{}
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		where = append(where, "(LOWER(name) LIKE ?"+likeEscape+" OR LOWER(country) LIKE ?"+likeEscape+")")
		args = append(args, likePattern(s), likePattern(s))
	}
	if c := strings.ToLower(strings.TrimSpace(country)); c != "" {
		where = append(where, "LOWER(country) = ?")
		args = append(args, c)
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, intdb.Rebind(`
		SELECT id, name, COALESCE(country,''), COALESCE(description,''), COALESCE(image_url,''), latitude, longitude
		FROM destinations
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY name
		LIMIT ?`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Destination{}
	for rows.Next() {
		var d models.Destination
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.Name, &d.Country, &d.Description, &d.ImageURL, &lat, &lng); err != nil {
			return nil, err
		}
		d.Latitude = intdb.FloatPtr(lat)
		d.Longitude = intdb.FloatPtr(lng)
		out = append(out, d)
	}
	return out, rows.Err()
}
