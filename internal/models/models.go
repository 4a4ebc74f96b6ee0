package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type TourStatus string

const (
	TourActive   TourStatus = "ACTIVE"
	TourInactive TourStatus = "INACTIVE"
	TourDraft    TourStatus = "DRAFT"
)

func (s TourStatus) Valid() bool {
	switch s {
	case TourActive, TourInactive, TourDraft:
		return true
	}
	return false
}

// User never serializes its password hash.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	Email     string    `gorm:"uniqueIndex;not null"         json:"email"`
	Password  string    `gorm:"not null"                     json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `gorm:"not null;default:'USER'"        json:"role"`
	IsActive  bool      `gorm:"not null;default:true"        json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) Principal() Principal {
	return Principal{UserID: u.ID.String(), Email: u.Email, Role: u.Role}
}

// Principal is the identity recovered from a verified access token.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type Tour struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"  json:"id"`
	Title       string     `gorm:"not null"              json:"title"`
	Description string     `json:"description"`
	Price       float64    `gorm:"not null"              json:"price"`
	Duration    int        `gorm:"not null"              json:"duration"`
	MaxCapacity int        `gorm:"not null"              json:"maxCapacity"`
	ImageURL    string     `json:"imageUrl"`
	Location    string     `json:"location"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Status      TourStatus `gorm:"not null;index;default:'DRAFT'" json:"status"`
	CreatedAt   time.Time  `gorm:"index"                 json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Tour) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TourDraft
	}
	return nil
}
