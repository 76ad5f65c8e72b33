package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intdb "travelatlas/internal/db"
	"travelatlas/internal/domain/models"

	"github.com/goccy/go-json"
)

// AtlasRepository wraps DB access for atlas_files.
type AtlasRepository struct {
	DB *sql.DB
}

func (r AtlasRepository) db() (*sql.DB, error) { return sharedDB(r.DB) }

const atlasColumns = `
	id, user_id, COALESCE(itinerary_id,''), title, slug,
	COALESCE(summary,''), COALESCE(destination,''), COALESCE(cover_image_url,''),
	COALESCE(sections,'[]'), COALESCE(tags,'[]'),
	is_published, published_at, view_count, created_at, updated_at`

func scanAtlas(row scanner) (models.AtlasFile, error) {
	var f models.AtlasFile
	var sections, tags string
	var publishedAt sql.NullTime
	err := row.Scan(
		&f.ID, &f.UserID, &f.ItineraryID, &f.Title, &f.Slug,
		&f.Summary, &f.Destination, &f.CoverImageURL,
		&sections, &tags,
		&f.IsPublished, &publishedAt, &f.ViewCount, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return models.AtlasFile{}, err
	}
	f.Sections = []models.AtlasSection{}
	if sections != "" {
		if err := json.Unmarshal([]byte(sections), &f.Sections); err != nil {
			return models.AtlasFile{}, fmt.Errorf("decode sections of %s: %w", f.ID, err)
		}
	}
	f.Tags = decodeStrings(tags)
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		f.PublishedAt = &t
	}
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f, nil
}

func encodeAtlas(f models.AtlasFile) (sections, tags string, err error) {
	if f.Sections == nil {
		f.Sections = []models.AtlasSection{}
	}
	if sections, err = encodeJSON(f.Sections); err != nil {
		return "", "", fmt.Errorf("encode sections: %w", err)
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if tags, err = encodeJSON(f.Tags); err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return sections, tags, nil
}

func (r AtlasRepository) Create(ctx context.Context, f models.AtlasFile) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	sections, tags, err := encodeAtlas(f)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, intdb.Rebind(`
		INSERT INTO atlas_files (
			id, user_id, itinerary_id, title, slug, summary, destination, cover_image_url,
			sections, tags, is_published, published_at, view_count, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		f.ID, f.UserID, intdb.NullIfEmpty(f.ItineraryID), f.Title, f.Slug, f.Summary, f.Destination, f.CoverImageURL,
		sections, tags, f.IsPublished, nullTime(f.PublishedAt), f.ViewCount, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

func (r AtlasRepository) GetByID(ctx context.Context, id string) (models.AtlasFile, error) {
	db, err := r.db()
	if err != nil {
		return models.AtlasFile{}, err
	}
	return scanAtlas(db.QueryRowContext(ctx, intdb.Rebind(`SELECT `+atlasColumns+` FROM atlas_files WHERE id = ? LIMIT 1`), id))
}

// GetPublishedBySlug only finds published files.
func (r AtlasRepository) GetPublishedBySlug(ctx context.Context, slug string) (models.AtlasFile, error) {
	db, err := r.db()
	if err != nil {
		return models.AtlasFile{}, err
	}
	return scanAtlas(db.QueryRowContext(ctx, intdb.Rebind(`
		SELECT `+atlasColumns+` FROM atlas_files WHERE slug = ? AND is_published = ? LIMIT 1`), slug, true))
}

func (r AtlasRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.AtlasFile, int, error) {
	return r.list(ctx, "user_id = ?", []any{userID}, "updated_at DESC, id DESC", limit, offset)
}

// ListPublished filters the public guides. Destination and search match
// case-insensitively as substrings; tag matches one exact tag.
func (r AtlasRepository) ListPublished(ctx context.Context, q models.GuideQuery) ([]models.AtlasFile, int, error) {
	where := []string{"is_published = ?"}
	args := []any{true}
	if d := strings.ToLower(strings.TrimSpace(q.Destination)); d != "" {
		where = append(where, "LOWER(destination) LIKE ?"+likeEscape)
		args = append(args, likePattern(d))
	}
	if tag := strings.ToLower(strings.TrimSpace(q.Tag)); tag != "" {
		encoded, err := encodeJSON(tag)
		if err != nil {
			return nil, 0, err
		}
		where = append(where, "tags LIKE ?"+likeEscape)
		args = append(args, likePattern(encoded))
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		where = append(where, "(LOWER(title) LIKE ?"+likeEscape+" OR LOWER(summary) LIKE ?"+likeEscape+" OR LOWER(destination) LIKE ?"+likeEscape+")")
		p := likePattern(s)
		args = append(args, p, p, p)
	}
	return r.list(ctx, strings.Join(where, " AND "), args, "published_at DESC, id DESC", q.Limit, q.Offset)
}

func (r AtlasRepository) list(ctx context.Context, where string, args []any, order string, limit, offset int) ([]models.AtlasFile, int, error) {
	db, err := r.db()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := db.QueryRowContext(ctx, intdb.Rebind(`SELECT COUNT(*) FROM atlas_files WHERE `+where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := db.QueryContext(ctx, intdb.Rebind(`
		SELECT `+atlasColumns+`
		FROM atlas_files
		WHERE `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`), pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.AtlasFile{}
	for rows.Next() {
		f, err := scanAtlas(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

// Update writes the editable content. Slug and publication state are not touched.
func (r AtlasRepository) Update(ctx context.Context, f models.AtlasFile) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	sections, tags, err := encodeAtlas(f)
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`
		UPDATE atlas_files SET
			title = ?, summary = ?, destination = ?, cover_image_url = ?,
			sections = ?, tags = ?, itinerary_id = ?, updated_at = ?
		WHERE id = ?`),
		f.Title, f.Summary, f.Destination, f.CoverImageURL,
		sections, tags, intdb.NullIfEmpty(f.ItineraryID), f.UpdatedAt,
		f.ID,
	))
}

// SetPublished toggles publication. published_at is set on the first publish only.
func (r AtlasRepository) SetPublished(ctx context.Context, id string, published bool, now time.Time) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	if published {
		return mustAffect(db.ExecContext(ctx, intdb.Rebind(`
			UPDATE atlas_files
			SET is_published = ?, published_at = COALESCE(published_at, ?), updated_at = ?
			WHERE id = ?`), true, now, now, id))
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`
		UPDATE atlas_files SET is_published = ?, updated_at = ? WHERE id = ?`), false, now, id))
}

// IncrementViews bumps view_count by one.
func (r AtlasRepository) IncrementViews(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`UPDATE atlas_files SET view_count = view_count + 1 WHERE id = ?`), id))
}

func (r AtlasRepository) Delete(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	return mustAffect(db.ExecContext(ctx, intdb.Rebind(`DELETE FROM atlas_files WHERE id = ?`), id))
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
