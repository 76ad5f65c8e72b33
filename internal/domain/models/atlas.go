package models

import "time"

// AtlasSection is one day-by-day chapter of an Atlas File. Body is markdown.
type AtlasSection struct {
	DayNumber int      `json:"day_number"`
	Title     string   `json:"title" binding:"max=200"`
	Body      string   `json:"body" binding:"max=20000"`
	Images    []string `json:"images" binding:"max=20"`
}

// AtlasFile mirrors the atlas_files table.
type AtlasFile struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	ItineraryID   string         `json:"itinerary_id,omitempty"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Summary       string         `json:"summary"`
	Destination   string         `json:"destination"`
	CoverImageURL string         `json:"cover_image_url"`
	Sections      []AtlasSection `json:"sections"`
	Tags          []string       `json:"tags"`
	IsPublished   bool           `json:"is_published"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	ViewCount     int            `json:"view_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AtlasFileInput is the writable part of an Atlas File.
type AtlasFileInput struct {
	Title         string         `json:"title" binding:"required,max=200"`
	Summary       string         `json:"summary" binding:"max=2000"`
	Destination   string         `json:"destination" binding:"max=200"`
	CoverImageURL string         `json:"cover_image_url" binding:"max=1024"`
	Sections      []AtlasSection `json:"sections" binding:"max=60,dive"`
	Tags          []string       `json:"tags" binding:"max=20"`
	ItineraryID   string         `json:"itinerary_id"`
}

// GuideQuery filters the public community guide listing.
type GuideQuery struct {
	Destination string
	Tag         string
	Search      string
	Limit       int
	Offset      int
}
