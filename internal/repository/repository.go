package repository

import (
	"context"
	"database/sql"
	"time"

	"cranewatch"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*cranewatch.User, error)
}

// EventRepo is the append-only safety log.
type EventRepo interface {
	Append(ctx context.Context, e cranewatch.SafetyEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]cranewatch.SafetyEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
