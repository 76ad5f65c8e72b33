package models

import "time"

// Itinerary statuses.
const (
	StatusDraft      = "draft"
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Itinerary mirrors the itineraries table.
type Itinerary struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Destination     string    `json:"destination"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	Travelers       int       `json:"travelers"`
	Budget          string    `json:"budget"`
	Pace            string    `json:"pace"`
	Interests       []string  `json:"interests"`
	Notes           string    `json:"notes"`
	CoverImageURL   string    `json:"cover_image_url"`
	Status          string    `json:"status"`
	GenerationError string    `json:"generation_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItineraryInput is the writable part of an itinerary.
type ItineraryInput struct {
	Title         string   `json:"title" binding:"max=200"`
	Destination   string   `json:"destination" binding:"max=200"`
	StartDate     string   `json:"start_date" binding:"omitempty,ymd"`
	EndDate       string   `json:"end_date" binding:"omitempty,ymd"`
	Travelers     int      `json:"travelers" binding:"min=0,max=50"`
	Budget        string   `json:"budget" binding:"omitempty,oneof=budget moderate luxury"`
	Pace          string   `json:"pace" binding:"omitempty,oneof=relaxed balanced packed"`
	Interests     []string `json:"interests" binding:"max=20"`
	Notes         string   `json:"notes" binding:"max=4000"`
	CoverImageURL string   `json:"cover_image_url" binding:"max=1024"`
}

// DayPlan groups one day's activities in order.
type DayPlan struct {
	DayNumber  int        `json:"day_number"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities"`
}

// ItineraryDetail is an itinerary with its activities grouped by day.
type ItineraryDetail struct {
	Itinerary
	Days []DayPlan `json:"days"`
}
