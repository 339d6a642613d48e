package userstats

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/OnekiDevs/oneki/internal/repositories/userstats Repository

import (
	"context"

	"github.com/OnekiDevs/oneki/internal/models"
)

// Repository defines the interface for cross-guild user stats persistence
type Repository interface {
	// IncrementStats atomically bumps a user's global correct or
	// incorrect counter, creating the record on first use
	IncrementStats(ctx context.Context, input *IncrementStatsInput) error

	// GetStats retrieves a user's global counting stats
	GetStats(ctx context.Context, input *GetStatsInput) (*models.UserStats, error)
}
