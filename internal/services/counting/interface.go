package counting

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/OnekiDevs/oneki/internal/services/counting Service

import "context"

// Service defines the interface for the counting game engine
type Service interface {
	// Load bulk-loads every persisted guild configuration into memory.
	// Called once at startup; the in-memory map is authoritative from
	// then on.
	Load(ctx context.Context, input *LoadInput) (*LoadOutput, error)

	// HandleMessage runs one message through the evaluator and the
	// sequence validator, mutates the guild state and returns the
	// consequence plan. The output is valid even when an error is
	// returned: the error reports a failed persistence write, which
	// never rolls back the in-memory decision.
	HandleMessage(ctx context.Context, input *HandleMessageInput) (*HandleMessageOutput, error)

	// ConfigureGuild creates or updates a guild's counting setup
	ConfigureGuild(ctx context.Context, input *ConfigureGuildInput) (*ConfigureGuildOutput, error)

	// DisableGuild removes a guild's counting setup and its document
	DisableGuild(ctx context.Context, input *DisableGuildInput) error

	// GetGuildCounting returns a snapshot of a guild's game state
	GetGuildCounting(ctx context.Context, input *GetGuildCountingInput) (*GetGuildCountingOutput, error)

	// GetUserStats returns a member's global and per-guild tallies
	GetUserStats(ctx context.Context, input *GetUserStatsInput) (*GetUserStatsOutput, error)

	// GetGlobalStatsPage returns one page of the cross-guild
	// leaderboard from the persisted documents
	GetGlobalStatsPage(ctx context.Context, input *GetGlobalStatsPageInput) (*GetGlobalStatsPageOutput, error)
}
