package counting

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/OnekiDevs/oneki/internal/repositories/counting Repository

import (
	"context"

	"github.com/OnekiDevs/oneki/internal/models"
)

// Repository defines the interface for counting document persistence
type Repository interface {
	// SaveCounting persists a guild's counting document
	SaveCounting(ctx context.Context, input *SaveCountingInput) error

	// GetCounting retrieves a guild's counting document
	GetCounting(ctx context.Context, input *GetCountingInput) (*models.GuildCounting, error)

	// ListCountings retrieves counting documents ordered by current
	// number, highest first
	ListCountings(ctx context.Context, input *ListCountingsInput) (*ListCountingsOutput, error)

	// DeleteCounting removes a guild's counting document
	DeleteCounting(ctx context.Context, input *DeleteCountingInput) error

	// ClearCurrentNumber removes the current_number field from a
	// guild's persisted document
	ClearCurrentNumber(ctx context.Context, input *ClearCurrentNumberInput) error

	// IncrementUserTally atomically bumps a member's per-guild
	// correct or incorrect counter
	IncrementUserTally(ctx context.Context, input *IncrementUserTallyInput) error
}
