package services

import (
	"context"
	"fmt"
	"strings"

	"travelatlas/internal/atlas"
	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/repositories"
	"travelatlas/internal/utils"
)

// AtlasService manages Atlas Files and the public guide listing.
type AtlasService struct {
	Repo        repositories.AtlasRepository
	Itineraries ItineraryService
	// ResolveURL turns storage object paths into public URLs on the way out.
	ResolveURL func(string) string
	RequestID  string
}

func (s AtlasService) resolve(f models.AtlasFile) models.AtlasFile {
	if s.ResolveURL == nil {
		return f
	}
	f.CoverImageURL = s.ResolveURL(f.CoverImageURL)
	sections := make([]models.AtlasSection, len(f.Sections))
	for i, sec := range f.Sections {
		imgs := make([]string, 0, len(sec.Images))
		for _, img := range sec.Images {
			imgs = append(imgs, s.ResolveURL(img))
		}
		sec.Images = imgs
		sections[i] = sec
	}
	f.Sections = sections
	return f
}

func (s AtlasService) resolveAll(list []models.AtlasFile) []models.AtlasFile {
	for i := range list {
		list[i] = s.resolve(list[i])
	}
	return list
}

func cleanSections(in []models.AtlasSection) ([]models.AtlasSection, error) {
	out := make([]models.AtlasSection, 0, len(in))
	for i, sec := range in {
		if sec.DayNumber < 0 {
			return nil, domain.ValidationError{Field: fmt.Sprintf("sections[%d].day_number", i), Msg: "must be >= 0"}
		}
		sec.Title = utils.NormalizeSpace(sec.Title)
		sec.Body = strings.TrimSpace(sec.Body)
		imgs := []string{}
		for _, img := range sec.Images {
			if img = strings.TrimSpace(img); img != "" {
				imgs = append(imgs, img)
			}
		}
		sec.Images = imgs
		out = append(out, sec)
	}
	return out, nil
}

func (s AtlasService) applyInput(ctx context.Context, userID string, f *models.AtlasFile, in models.AtlasFileInput) error {
	f.Title = utils.NormalizeSpace(in.Title)
	if f.Title == "" {
		return domain.ValidationError{Field: "title", Msg: "title is required"}
	}
	sections, err := cleanSections(in.Sections)
	if err != nil {
		return err
	}
	if id := strings.TrimSpace(in.ItineraryID); id != "" {
		if _, err := s.Itineraries.Get(ctx, userID, id); err != nil {
			return err
		}
		f.ItineraryID = id
	}
	f.Summary = strings.TrimSpace(in.Summary)
	f.Destination = utils.NormalizeSpace(in.Destination)
	f.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	f.Sections = sections
	f.Tags = utils.CleanTags(in.Tags)
	return nil
}

func (s AtlasService) List(ctx context.Context, userID string, page domain.Pagination) ([]models.AtlasFile, domain.Pagination, error) {
	if err := requireUser(userID); err != nil {
		return nil, page, err
	}
	page = page.Clamp(20, 100)
	list, total, err := s.Repo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, page, repoError("atlas file", err)
	}
	page.Total = total
	return s.resolveAll(list), page, nil
}

// Create stores an unpublished Atlas File with a fresh slug.
func (s AtlasService) Create(ctx context.Context, userID string, in models.AtlasFileInput) (models.AtlasFile, error) {
	if err := requireUser(userID); err != nil {
		return models.AtlasFile{}, err
	}
	f := models.AtlasFile{ID: newID(), UserID: userID}
	if err := s.applyInput(ctx, userID, &f, in); err != nil {
		return models.AtlasFile{}, err
	}
	f.Slug = atlas.NewSlug(f.Title)
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt
	if err := s.Repo.Create(ctx, f); err != nil {
		return models.AtlasFile{}, repoError("atlas file", err)
	}
	utils.LogEvent(s.RequestID, "atlas", "create", "atlas_id="+f.ID+" slug="+f.Slug)
	return s.resolve(f), nil
}

// CreateFromItinerary drafts an Atlas File with one section per itinerary day.
func (s AtlasService) CreateFromItinerary(ctx context.Context, userID, itineraryID string) (models.AtlasFile, error) {
	detail, err := s.Itineraries.Detail(ctx, userID, itineraryID)
	if err != nil {
		return models.AtlasFile{}, err
	}
	if detail.Status == models.StatusGenerating {
		return models.AtlasFile{}, domain.ConflictError{Resource: "itinerary", Msg: "generation in progress"}
	}
	in, err := atlas.DraftFromItinerary(detail)
	if err != nil {
		return models.AtlasFile{}, domain.InternalError{Msg: "could not draft atlas file", Err: err}
	}
	return s.Create(ctx, userID, in)
}

// Get returns the file to its owner, or to anyone once published.
func (s AtlasService) Get(ctx context.Context, userID, id string) (models.AtlasFile, error) {
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.AtlasFile{}, repoError("atlas file", err)
	}
	if f.UserID != userID && !f.IsPublished {
		return models.AtlasFile{}, domain.ForbiddenError{Resource: "atlas file"}
	}
	return s.resolve(f), nil
}

func (s AtlasService) owned(ctx context.Context, userID, id string) (models.AtlasFile, error) {
	if err := requireUser(userID); err != nil {
		return models.AtlasFile{}, err
	}
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.AtlasFile{}, repoError("atlas file", err)
	}
	if f.UserID != userID {
		return models.AtlasFile{}, domain.ForbiddenError{Resource: "atlas file"}
	}
	return f, nil
}

// Update rewrites content. The slug stays stable.
func (s AtlasService) Update(ctx context.Context, userID, id string, in models.AtlasFileInput) (models.AtlasFile, error) {
	f, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.AtlasFile{}, err
	}
	if err := s.applyInput(ctx, userID, &f, in); err != nil {
		return models.AtlasFile{}, err
	}
	f.UpdatedAt = now()
	if err := s.Repo.Update(ctx, f); err != nil {
		return models.AtlasFile{}, repoError("atlas file", err)
	}
	utils.LogEvent(s.RequestID, "atlas", "update", "atlas_id="+id)
	return s.resolve(f), nil
}

func (s AtlasService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return repoError("atlas file", err)
	}
	utils.LogEvent(s.RequestID, "atlas", "delete", "atlas_id="+id)
	return nil
}

// SetPublished publishes or unpublishes. The first publish time is kept.
func (s AtlasService) SetPublished(ctx context.Context, userID, id string, published bool) (models.AtlasFile, error) {
	f, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.AtlasFile{}, err
	}
	if published && len(f.Sections) == 0 && strings.TrimSpace(f.Summary) == "" {
		return models.AtlasFile{}, domain.ValidationError{Field: "sections", Msg: "add a summary or at least one section before publishing"}
	}
	ts := now()
	if err := s.Repo.SetPublished(ctx, id, published, ts); err != nil {
		return models.AtlasFile{}, repoError("atlas file", err)
	}
	f.IsPublished = published
	f.UpdatedAt = ts
	if published && f.PublishedAt == nil {
		f.PublishedAt = &ts
	}
	action := "unpublish"
	if published {
		action = "publish"
	}
	utils.LogEvent(s.RequestID, "atlas", action, "atlas_id="+id)
	return s.resolve(f), nil
}

// HTML renders the sanitized standalone document.
func (s AtlasService) HTML(ctx context.Context, userID, id string) ([]byte, error) {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	out, err := atlas.RenderHTML(f)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not render atlas file", Err: err}
	}
	return out, nil
}

// PDF renders the document and its download filename.
func (s AtlasService) PDF(ctx context.Context, userID, id string) ([]byte, string, error) {
	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	out, name, err := atlas.RenderPDF(f)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "could not render atlas pdf", Err: err}
	}
	utils.LogEvent(s.RequestID, "atlas", "pdf", "atlas_id="+id)
	return out, name, nil
}

// Guides lists published files for the community page.
func (s AtlasService) Guides(ctx context.Context, q models.GuideQuery) ([]models.AtlasFile, domain.Pagination, error) {
	page := domain.Pagination{Limit: q.Limit, Offset: q.Offset}.Clamp(20, 100)
	q.Limit, q.Offset = page.Limit, page.Offset
	list, total, err := s.Repo.ListPublished(ctx, q)
	if err != nil {
		return nil, page, repoError("guide", err)
	}
	page.Total = total
	return s.resolveAll(list), page, nil
}

// Guide returns a published file by slug and counts the view.
func (s AtlasService) Guide(ctx context.Context, slug string) (models.AtlasFile, error) {
	f, err := s.Repo.GetPublishedBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return models.AtlasFile{}, repoError("guide", err)
	}
	if err := s.Repo.IncrementViews(ctx, f.ID); err != nil {
		// a lost view is not worth failing the read
		utils.LogFailure(s.RequestID, "atlas", "increment_views", err)
	} else {
		f.ViewCount++
	}
	return s.resolve(f), nil
}
