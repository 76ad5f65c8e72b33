package services

import (
	"context"
	"fmt"
	"strings"

	"travelatlas/internal/ai"
	"travelatlas/internal/domain"
	"travelatlas/internal/domain/models"
	"travelatlas/internal/planner"
	"travelatlas/internal/repositories"
	"travelatlas/internal/utils"
)

// ActivityService edits the activities of an owned itinerary and keeps every
// day bucket contiguously ordered.
type ActivityService struct {
	Repo        repositories.ActivityRepository
	Itineraries ItineraryService
	RequestID   string
}

// editable loads the itinerary and its activities, refusing edits while a generation runs.
func (s ActivityService) editable(ctx context.Context, userID, itineraryID string) (models.Itinerary, []models.Activity, error) {
	it, err := s.Itineraries.Get(ctx, userID, itineraryID)
	if err != nil {
		return models.Itinerary{}, nil, err
	}
	if it.Status == models.StatusGenerating {
		return models.Itinerary{}, nil, domain.ConflictError{Resource: "itinerary", Msg: "generation in progress"}
	}
	acts, err := s.Repo.ListByItinerary(ctx, itineraryID)
	if err != nil {
		return models.Itinerary{}, nil, repoError("activity", err)
	}
	return it, acts, nil
}

func (s ActivityService) List(ctx context.Context, userID, itineraryID string) ([]models.Activity, error) {
	if _, err := s.Itineraries.Get(ctx, userID, itineraryID); err != nil {
		return nil, err
	}
	acts, err := s.Repo.ListByItinerary(ctx, itineraryID)
	if err != nil {
		return nil, repoError("activity", err)
	}
	return acts, nil
}

func applyActivityInput(a *models.Activity, in models.ActivityInput) error {
	a.Title = utils.NormalizeSpace(in.Title)
	if a.Title == "" {
		return domain.ValidationError{Field: "title", Msg: "title is required"}
	}
	a.Description = strings.TrimSpace(in.Description)
	a.Location = utils.NormalizeSpace(in.Location)
	a.StartTime = strings.TrimSpace(in.StartTime)
	if a.StartTime != "" && !utils.IsHM(a.StartTime) {
		return domain.ValidationError{Field: "start_time", Msg: "start_time must be HH:MM"}
	}
	if in.DurationMinutes < 0 || in.CostMin < 0 || in.CostMax < 0 {
		return domain.ValidationError{Field: "cost", Msg: "durations and costs cannot be negative"}
	}
	a.DurationMinutes = in.DurationMinutes
	a.CostMin, a.CostMax = in.CostMin, in.CostMax
	if a.CostMax < a.CostMin {
		a.CostMin, a.CostMax = a.CostMax, a.CostMin
	}
	a.Currency = ai.NormalizeCurrency(in.Currency)
	a.Category = ai.NormalizeCategory(in.Category)
	a.Latitude, a.Longitude = in.Latitude, in.Longitude
	return nil
}

func findActivity(acts []models.Activity, id string) (models.Activity, bool) {
	for _, a := range acts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Activity{}, false
}

func without(acts []models.Activity, id string) []models.Activity {
	out := make([]models.Activity, 0, len(acts))
	for _, a := range acts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// Create appends an activity to its day. Without a day it goes to the last day in use.
func (s ActivityService) Create(ctx context.Context, userID, itineraryID string, in models.ActivityInput) (models.Activity, error) {
	it, acts, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return models.Activity{}, err
	}
	a := models.Activity{ID: newID(), ItineraryID: itineraryID}
	if err := applyActivityInput(&a, in); err != nil {
		return models.Activity{}, err
	}
	a.DayNumber = in.DayNumber
	if a.DayNumber == 0 {
		a.DayNumber = planner.LastDay(acts)
	}
	if err := planner.ValidateDay(a.DayNumber, DayCount(it)); err != nil {
		return models.Activity{}, domain.ValidationError{Field: "day_number", Msg: err.Error()}
	}
	a.Position = planner.AppendPosition(acts, a.DayNumber)
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt

	if err := s.Repo.Create(ctx, a); err != nil {
		return models.Activity{}, repoError("activity", err)
	}
	utils.LogEvent(s.RequestID, "activity", "create", fmt.Sprintf("itinerary_id=%s activity_id=%s day=%d", itineraryID, a.ID, a.DayNumber))
	return a, nil
}

// Update edits an activity. Moving it to another day appends it to that day
// and closes the gap it left behind.
func (s ActivityService) Update(ctx context.Context, userID, itineraryID, activityID string, in models.ActivityInput) (models.Activity, error) {
	it, acts, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return models.Activity{}, err
	}
	a, ok := findActivity(acts, activityID)
	if !ok {
		return models.Activity{}, domain.NotFoundError{Resource: "activity"}
	}
	if err := applyActivityInput(&a, in); err != nil {
		return models.Activity{}, err
	}
	a.UpdatedAt = now()

	var shifted []models.Activity
	if in.DayNumber != 0 && in.DayNumber != a.DayNumber {
		if err := planner.ValidateDay(in.DayNumber, DayCount(it)); err != nil {
			return models.Activity{}, domain.ValidationError{Field: "day_number", Msg: err.Error()}
		}
		_, changed, err := planner.Move(acts, activityID, in.DayNumber, planner.AppendPosition(acts, in.DayNumber))
		if err != nil {
			return models.Activity{}, domain.ValidationError{Field: "day_number", Msg: err.Error()}
		}
		for _, c := range changed {
			if c.ID == activityID {
				a.DayNumber, a.Position = c.DayNumber, c.Position
				continue
			}
			shifted = append(shifted, c)
		}
	}

	if err := s.Repo.Update(ctx, a, shifted); err != nil {
		return models.Activity{}, repoError("activity", err)
	}
	utils.LogEvent(s.RequestID, "activity", "update", fmt.Sprintf("itinerary_id=%s activity_id=%s", itineraryID, activityID))
	return a, nil
}

// Delete removes an activity and compacts its day.
func (s ActivityService) Delete(ctx context.Context, userID, itineraryID, activityID string) error {
	_, acts, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return err
	}
	if _, ok := findActivity(acts, activityID); !ok {
		return domain.NotFoundError{Resource: "activity"}
	}
	rest := without(acts, activityID)
	shifted := planner.Changed(rest, planner.Normalize(rest))
	if err := s.Repo.Delete(ctx, activityID, shifted, now()); err != nil {
		return repoError("activity", err)
	}
	utils.LogEvent(s.RequestID, "activity", "delete", fmt.Sprintf("itinerary_id=%s activity_id=%s", itineraryID, activityID))
	return nil
}

// Move places an activity at a day and position and returns the full
// reindexed list. Only rows whose day or position changed are written.
func (s ActivityService) Move(ctx context.Context, userID, itineraryID, activityID string, in models.MoveInput) ([]models.Activity, error) {
	it, acts, err := s.editable(ctx, userID, itineraryID)
	if err != nil {
		return nil, err
	}
	if _, ok := findActivity(acts, activityID); !ok {
		return nil, domain.NotFoundError{Resource: "activity"}
	}
	if err := planner.ValidateDay(in.DayNumber, DayCount(it)); err != nil {
		return nil, domain.ValidationError{Field: "day_number", Msg: err.Error()}
	}
	all, changed, err := planner.Move(acts, activityID, in.DayNumber, in.Position)
	if err != nil {
		return nil, domain.ValidationError{Field: "day_number", Msg: err.Error()}
	}
	if err := s.Repo.UpdatePositions(ctx, changed, now()); err != nil {
		return nil, repoError("activity", err)
	}
	utils.LogEvent(s.RequestID, "activity", "move", fmt.Sprintf("itinerary_id=%s activity_id=%s day=%d position=%d changed=%d",
		itineraryID, activityID, in.DayNumber, in.Position, len(changed)))
	return all, nil
}
