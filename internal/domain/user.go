package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleEmployer  UserRole = "employer"
	UserRoleJobseeker UserRole = "jobseeker"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
}
