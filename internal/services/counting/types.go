package counting

import (
	"github.com/OnekiDevs/oneki/internal/common/clock"
	"github.com/OnekiDevs/oneki/internal/models"
	countingRepo "github.com/OnekiDevs/oneki/internal/repositories/counting"
	userStatsRepo "github.com/OnekiDevs/oneki/internal/repositories/userstats"
)

// Outcome is the decision the sequence validator reaches for one message
type Outcome string

const (
	// OutcomeIgnored indicates the message is not part of the game:
	// wrong channel, a bot author, or non-numeric content in a guild
	// that tolerates chatter
	OutcomeIgnored Outcome = "ignored"

	// OutcomeAccepted indicates the message continued the count
	OutcomeAccepted Outcome = "accepted"

	// OutcomeRejectedRepeat indicates the same member tried to count
	// twice in a row
	OutcomeRejectedRepeat Outcome = "rejected_repeat"

	// OutcomeRejectedWrong indicates the number was not the successor
	// of the current count
	OutcomeRejectedWrong Outcome = "rejected_wrong"

	// OutcomeRejectedNotNumber indicates non-numeric content in a
	// numbers-only channel
	OutcomeRejectedNotNumber Outcome = "rejected_not_number"
)

// Rejected reports whether the outcome carries failure consequences
func (o Outcome) Rejected() bool {
	return o == OutcomeRejectedRepeat || o == OutcomeRejectedWrong || o == OutcomeRejectedNotNumber
}

// Config holds configuration for the counting service
type Config struct {
	// Repository dependencies
	CountingRepo  countingRepo.Repository
	UserStatsRepo userStatsRepo.Repository

	// Clock for record timestamps
	Clock clock.Clock
}

// LoadInput contains parameters for the startup bulk load
type LoadInput struct {
	// GuildFilter reports whether the bot can still access a guild.
	// Guilds it rejects are skipped for this process run. A nil
	// filter loads everything.
	GuildFilter func(guildID string) bool
}

// LoadOutput reports the result of the startup bulk load
type LoadOutput struct {
	Loaded  int
	Skipped int
}

// HandleMessageInput describes one incoming chat message
type HandleMessageInput struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string

	// AuthorIsBot excludes bot accounts from the game
	AuthorIsBot bool

	// Content is the raw message text
	Content string
}

// HandleMessageOutput is the validator decision plus the consequence
// plan the caller must apply against the chat platform.
type HandleMessageOutput struct {
	Outcome Outcome

	// Number is the evaluated candidate, set for every outcome that
	// parsed as a number
	Number int

	// NewRecord is true when an accepted count set or matched the
	// guild record
	NewRecord bool

	// PinMessageID is the milestone message to pin before the reset,
	// empty when there is nothing to pin
	PinMessageID string

	// FailRoleID is the penalty role to apply to the author, empty
	// when no penalty is configured or the outcome carries none
	FailRoleID string
}

// ConfigureGuildInput creates or updates a guild's counting setup
type ConfigureGuildInput struct {
	GuildID   string
	ChannelID string

	// FailRoleID sets the penalty role when non-empty
	FailRoleID string

	// NumbersOnly updates the flag when non-nil
	NumbersOnly *bool
}

// ConfigureGuildOutput reports whether the guild was newly configured
type ConfigureGuildOutput struct {
	Created bool
}

type DisableGuildInput struct {
	GuildID string
}

type GetGuildCountingInput struct {
	GuildID string
}

type GetGuildCountingOutput struct {
	// Counting is a snapshot; mutating it does not affect the game
	Counting *models.GuildCounting
}

type GetUserStatsInput struct {
	GuildID string
	UserID  string
}

type GetUserStatsOutput struct {
	// Global is nil when the user has never counted anywhere
	Global *models.UserStats

	// Guild is nil when the user has never counted in this guild
	Guild *models.UserTally
}

// GetGlobalStatsPageInput requests one page of the cross-guild
// leaderboard, ordered by current number descending
type GetGlobalStatsPageInput struct {
	Offset int
	Limit  int
}

// GlobalStatsEntry aggregates one guild's counting activity
type GlobalStatsEntry struct {
	GuildID    string
	CurrentNum int
	CurrentBy  string
	Correct    int
	Incorrect  int
}

type GetGlobalStatsPageOutput struct {
	Entries []*GlobalStatsEntry
}
