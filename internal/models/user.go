package models

import (
	"time"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Profile struct {
	ID                    uint         `json:"id" gorm:"primaryKey"`
	UserID                uint         `json:"user_id" gorm:"uniqueIndex;not null"`
	Bio                   string       `json:"bio"`
	Location              string       `json:"location" gorm:"index"` // ISO 3166-1 alpha-2 when recognized
	HouseDescription      string       `json:"house_description"`
	PreferredDestinations string       `json:"preferred_destinations"`
	AvailableDates        string       `json:"available_dates"` // "YYYY-MM-DD to YYYY-MM-DD"
	IsVisible             bool         `json:"is_visible" gorm:"not null;index"`
	Pets                  bool         `json:"pets"`
	Pool                  bool         `json:"pool"`
	Bedrooms              bool         `json:"bedrooms"`
	Beach                 bool         `json:"beach"`
	Mountains             bool         `json:"mountains"`
	City                  bool         `json:"city"`
	Rural                 bool         `json:"rural"`
	HouseImages           []HouseImage `json:"house_images,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

type HouseImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProfileID uint      `json:"profile_id" gorm:"not null;index"`
	URL       string    `json:"url" gorm:"not null"`
	IsMain    bool      `json:"is_main" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
