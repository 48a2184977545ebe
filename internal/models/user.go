package models

import (
	"time"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleDoctor  UserRole = "DOCTOR"
	RolePatient UserRole = "PATIENT"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Name         string   `json:"name" gorm:"not null;size:100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"column:password;not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(16);not null;default:'PATIENT';index"`
	Phone        *string  `json:"phone,omitempty" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the projection embedded in appointment listings
type UserSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// Viewer is the authenticated identity performing an operation
type Viewer struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

func (v Viewer) IsAdmin() bool   { return v.Role == RoleAdmin }
func (v Viewer) IsDoctor() bool  { return v.Role == RoleDoctor }
func (v Viewer) IsPatient() bool { return v.Role == RolePatient }
