package services

import (
	"context"

	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/repositories"
)

type DestinationService struct {
	Repo repositories.DestinationRepository
}

// List returns up to limit destinations (default 100, max 500).
func (s DestinationService) List(ctx context.Context, search, country string, limit int) ([]models.Destination, error) {
	page := domain.Pagination{Limit: limit}.Clamp(100, 500)
	list, err := s.Repo.List(ctx, search, country, page.Limit)
	if err != nil {
		return nil, repoError("destination", err)
	}
	return list, nil
}
