package models

import "time"

// FavoritePlace mirrors the favorite_places table.
type FavoritePlace struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	PlaceID   string    `json:"place_id"`
	Category  string    `json:"category"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type FavoritePlaceInput struct {
	Name      string   `json:"name" binding:"required,max=200"`
	Address   string   `json:"address" binding:"max=500"`
	PlaceID   string   `json:"place_id" binding:"max=255"`
	Category  string   `json:"category" binding:"max=64"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
	Notes     string   `json:"notes" binding:"max=2000"`
}
