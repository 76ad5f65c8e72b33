package services

import (
	"context"
	"strings"

	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/repositories"
	"travelatlas/internal/utils"
)

// FavoriteService manages a user's saved places.
type FavoriteService struct {
	Repo      repositories.FavoriteRepository
	RequestID string
}

func applyFavoriteInput(p *models.FavoritePlace, in models.FavoritePlaceInput) error {
	p.Name = utils.NormalizeSpace(in.Name)
	if p.Name == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.ValidationError{Field: "latitude", Msg: "latitude and longitude go together"}
	}
	p.Address = utils.NormalizeSpace(in.Address)
	p.PlaceID = strings.TrimSpace(in.PlaceID)
	p.Category = strings.ToLower(utils.NormalizeSpace(in.Category))
	p.Latitude, p.Longitude = in.Latitude, in.Longitude
	p.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (s FavoriteService) checkDuplicate(ctx context.Context, p models.FavoritePlace) error {
	dup, err := s.Repo.FindDuplicate(ctx, p.UserID, p.PlaceID, p.Name, p.Address, p.ID)
	if err != nil {
		return repoError("favorite place", err)
	}
	if dup {
		return domain.ConflictError{Resource: "favorite place", Msg: "already saved"}
	}
	return nil
}

func (s FavoriteService) List(ctx context.Context, userID string) ([]models.FavoritePlace, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, repoError("favorite place", err)
	}
	return list, nil
}

func (s FavoriteService) Create(ctx context.Context, userID string, in models.FavoritePlaceInput) (models.FavoritePlace, error) {
	if err := requireUser(userID); err != nil {
		return models.FavoritePlace{}, err
	}
	p := models.FavoritePlace{ID: newID(), UserID: userID}
	if err := applyFavoriteInput(&p, in); err != nil {
		return models.FavoritePlace{}, err
	}
	if err := s.checkDuplicate(ctx, p); err != nil {
		return models.FavoritePlace{}, err
	}
	p.CreatedAt = now()
	if err := s.Repo.Create(ctx, p); err != nil {
		return models.FavoritePlace{}, repoError("favorite place", err)
	}
	utils.LogEvent(s.RequestID, "favorite", "create", "favorite_id="+p.ID)
	return p, nil
}

func (s FavoriteService) owned(ctx context.Context, userID, id string) (models.FavoritePlace, error) {
	if err := requireUser(userID); err != nil {
		return models.FavoritePlace{}, err
	}
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.FavoritePlace{}, repoError("favorite place", err)
	}
	if p.UserID != userID {
		return models.FavoritePlace{}, domain.ForbiddenError{Resource: "favorite place"}
	}
	return p, nil
}

func (s FavoriteService) Update(ctx context.Context, userID, id string, in models.FavoritePlaceInput) (models.FavoritePlace, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.FavoritePlace{}, err
	}
	if err := applyFavoriteInput(&p, in); err != nil {
		return models.FavoritePlace{}, err
	}
	if err := s.checkDuplicate(ctx, p); err != nil {
		return models.FavoritePlace{}, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return models.FavoritePlace{}, repoError("favorite place", err)
	}
	utils.LogEvent(s.RequestID, "favorite", "update", "favorite_id="+id)
	return p, nil
}

func (s FavoriteService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return repoError("favorite place", err)
	}
	utils.LogEvent(s.RequestID, "favorite", "delete", "favorite_id="+id)
	return nil
}
