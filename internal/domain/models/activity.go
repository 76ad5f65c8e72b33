package models

import "time"

// Activity categories.
var ActivityCategories = []string{
	"sightseeing", "food", "culture", "nature", "adventure",
	"shopping", "nightlife", "relaxation", "transport", "accommodation", "other",
}

// Activity mirrors the activities table.
type Activity struct {
	ID              string    `json:"id"`
	ItineraryID     string    `json:"itinerary_id"`
	DayNumber       int       `json:"day_number"`
	Position        int       `json:"position"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	CostMin         float64   `json:"cost_min"`
	CostMax         float64   `json:"cost_max"`
	Currency        string    `json:"currency"`
	Category        string    `json:"category"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ActivityInput is the writable part of an activity. DayNumber 0 means "not chosen".
type ActivityInput struct {
	DayNumber       int      `json:"day_number" binding:"min=0,max=366"`
	Title           string   `json:"title" binding:"required,max=200"`
	Description     string   `json:"description" binding:"max=4000"`
	Location        string   `json:"location" binding:"max=500"`
	StartTime       string   `json:"start_time" binding:"omitempty,hhmm"`
	DurationMinutes int      `json:"duration_minutes" binding:"min=0,max=1440"`
	CostMin         float64  `json:"cost_min" binding:"min=0"`
	CostMax         float64  `json:"cost_max" binding:"min=0"`
	Currency        string   `json:"currency" binding:"omitempty,len=3"`
	Category        string   `json:"category" binding:"omitempty,activity_category"`
	Latitude        *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// MoveInput places an activity at a day/position.
type MoveInput struct {
	DayNumber int `json:"day_number" binding:"required,min=1"`
	Position  int `json:"position" binding:"min=0"`
}
