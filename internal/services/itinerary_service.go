package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/planner"
	"travelatlas/internal/repositories"
	"travelatlas/internal/utils"
)

// ItineraryService owns itinerary lifecycle and ownership checks.
type ItineraryService struct {
	Repo       repositories.ItineraryRepository
	Activities repositories.ActivityRepository
	RequestID  string
}

// StatusView is what clients poll while a generation runs.
type StatusView struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	GenerationError string `json:"generation_error,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

// tripDays validates the date range and returns the inclusive day count (0 = no dates).
func tripDays(start, end string) (int, error) {
	if (start == "") != (end == "") {
		return 0, domain.ValidationError{Field: "end_date", Msg: "start_date and end_date go together"}
	}
	days, err := utils.DaysInclusive(start, end)
	if err != nil {
		return 0, domain.ValidationError{Field: "end_date", Msg: err.Error(), Err: err}
	}
	if days > 366 {
		return 0, domain.ValidationError{Field: "end_date", Msg: "trips are limited to one year"}
	}
	return days, nil
}

// DayCount is the itinerary length in days, 0 when unbounded.
func DayCount(it models.Itinerary) int {
	days, err := utils.DaysInclusive(it.StartDate, it.EndDate)
	if err != nil {
		return 0
	}
	return days
}

func applyItineraryInput(it *models.Itinerary, in models.ItineraryInput) {
	it.Title = utils.NormalizeSpace(in.Title)
	it.Destination = utils.NormalizeSpace(in.Destination)
	it.StartDate = strings.TrimSpace(in.StartDate)
	it.EndDate = strings.TrimSpace(in.EndDate)
	it.Travelers = in.Travelers
	if it.Travelers < 1 {
		it.Travelers = 1
	}
	it.Budget = in.Budget
	if it.Budget == "" {
		it.Budget = "moderate"
	}
	it.Pace = in.Pace
	if it.Pace == "" {
		it.Pace = "balanced"
	}
	it.Interests = utils.CleanTags(in.Interests)
	it.Notes = strings.TrimSpace(in.Notes)
	it.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
}

func validateItinerary(it models.Itinerary) (int, error) {
	if it.Destination == "" {
		return 0, domain.ValidationError{Field: "destination", Msg: "destination is required"}
	}
	if it.Title == "" {
		return 0, domain.ValidationError{Field: "title", Msg: "title is required"}
	}
	return tripDays(it.StartDate, it.EndDate)
}

func (s ItineraryService) List(ctx context.Context, userID string, page domain.Pagination) ([]models.Itinerary, domain.Pagination, error) {
	if err := requireUser(userID); err != nil {
		return nil, page, err
	}
	page = page.Clamp(20, 100)
	list, total, err := s.Repo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, page, repoError("itinerary", err)
	}
	page.Total = total
	return list, page, nil
}

// Create stores a draft itinerary.
func (s ItineraryService) Create(ctx context.Context, userID string, in models.ItineraryInput) (models.Itinerary, error) {
	return s.create(ctx, userID, in, models.StatusDraft)
}

func (s ItineraryService) create(ctx context.Context, userID string, in models.ItineraryInput, status string) (models.Itinerary, error) {
	it, _, err := s.build(userID, in, status)
	if err != nil {
		return models.Itinerary{}, err
	}
	return it, s.insert(ctx, it)
}

// build validates a new itinerary without storing it and returns its day count.
func (s ItineraryService) build(userID string, in models.ItineraryInput, status string) (models.Itinerary, int, error) {
	if err := requireUser(userID); err != nil {
		return models.Itinerary{}, 0, err
	}
	it := models.Itinerary{ID: newID(), UserID: userID, Status: status}
	applyItineraryInput(&it, in)
	days, err := validateItinerary(it)
	if err != nil {
		return models.Itinerary{}, 0, err
	}
	it.CreatedAt = now()
	it.UpdatedAt = it.CreatedAt
	return it, days, nil
}

func (s ItineraryService) insert(ctx context.Context, it models.Itinerary) error {
	if err := s.Repo.Create(ctx, it); err != nil {
		return repoError("itinerary", err)
	}
	utils.LogEvent(s.RequestID, "itinerary", "create", "itinerary_id="+it.ID)
	return nil
}

// Get loads an itinerary owned by userID.
func (s ItineraryService) Get(ctx context.Context, userID, id string) (models.Itinerary, error) {
	if err := requireUser(userID); err != nil {
		return models.Itinerary{}, err
	}
	it, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.Itinerary{}, repoError("itinerary", err)
	}
	if it.UserID != userID {
		return models.Itinerary{}, domain.ForbiddenError{Resource: "itinerary"}
	}
	return it, nil
}

// Detail is Get plus activities grouped by day.
func (s ItineraryService) Detail(ctx context.Context, userID, id string) (models.ItineraryDetail, error) {
	it, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.ItineraryDetail{}, err
	}
	acts, err := s.Activities.ListByItinerary(ctx, id)
	if err != nil {
		return models.ItineraryDetail{}, repoError("activity", err)
	}
	return models.ItineraryDetail{
		Itinerary: it,
		Days:      planner.GroupByDay(acts, DayCount(it), it.StartDate, utils.DayDate),
	}, nil
}

func (s ItineraryService) Status(ctx context.Context, userID, id string) (StatusView, error) {
	it, err := s.Get(ctx, userID, id)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{
		ID:              it.ID,
		Status:          it.Status,
		GenerationError: it.GenerationError,
		UpdatedAt:       it.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// Update rewrites the itinerary. When the trip gets shorter, activities on
// days past the new end move to the last day in the same write.
func (s ItineraryService) Update(ctx context.Context, userID, id string, in models.ItineraryInput) (models.Itinerary, error) {
	it, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Itinerary{}, err
	}
	if it.Status == models.StatusGenerating {
		return models.Itinerary{}, domain.ConflictError{Resource: "itinerary", Msg: "generation in progress"}
	}
	oldDays := DayCount(it)
	applyItineraryInput(&it, in)
	days, err := validateItinerary(it)
	if err != nil {
		return models.Itinerary{}, err
	}
	it.UpdatedAt = now()

	var shifted []models.Activity
	if days > 0 && (oldDays == 0 || days < oldDays) {
		acts, err := s.Activities.ListByItinerary(ctx, id)
		if err != nil {
			return models.Itinerary{}, repoError("activity", err)
		}
		shifted = planner.Changed(acts, planner.AssignDays(acts, days))
	}
	if err := s.Repo.Update(ctx, it, shifted); err != nil {
		if errors.Is(err, repositories.ErrGenerating) {
			return models.Itinerary{}, domain.ConflictError{Resource: "itinerary", Msg: "generation in progress"}
		}
		return models.Itinerary{}, repoError("itinerary", err)
	}
	utils.LogEvent(s.RequestID, "itinerary", "update", fmt.Sprintf("itinerary_id=%s days=%d", id, days))
	return it, nil
}

func (s ItineraryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return repoError("itinerary", err)
	}
	utils.LogEvent(s.RequestID, "itinerary", "delete", "itinerary_id="+id)
	return nil
}
