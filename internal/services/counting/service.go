package counting

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/OnekiDevs/oneki/internal/common/clock"
	"github.com/OnekiDevs/oneki/internal/mathexpr"
	"github.com/OnekiDevs/oneki/internal/models"
	countingRepo "github.com/OnekiDevs/oneki/internal/repositories/counting"
	userStatsRepo "github.com/OnekiDevs/oneki/internal/repositories/userstats"
)

// service implements the Service interface
type service struct {
	countingRepo  countingRepo.Repository
	userStatsRepo userStatsRepo.Repository
	clock         clock.Clock

	// countings is the in-process source of truth for every guild's
	// game state. The validator's read-modify-write happens entirely
	// under mu before any network call, so two messages for the same
	// guild cannot interleave their critical section. The document
	// store is a write-behind mirror.
	mu        sync.Mutex
	countings map[string]*models.GuildCounting
}

// NewService creates a new counting service
func NewService(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.CountingRepo == nil {
		return nil, ErrNilCountingRepo
	}

	if cfg.UserStatsRepo == nil {
		return nil, ErrNilUserStatsRepo
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	return &service{
		countingRepo:  cfg.CountingRepo,
		userStatsRepo: cfg.UserStatsRepo,
		clock:         cfg.Clock,
		countings:     make(map[string]*models.GuildCounting),
	}, nil
}

// Load bulk-loads every persisted guild configuration into memory
func (s *service) Load(ctx context.Context, input *LoadInput) (*LoadOutput, error) {
	if input == nil {
		input = &LoadInput{}
	}

	listOutput, err := s.countingRepo.ListCountings(ctx, &countingRepo.ListCountingsInput{})
	if err != nil {
		return nil, err
	}

	output := &LoadOutput{}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, counting := range listOutput.Countings {
		if input.GuildFilter != nil && !input.GuildFilter(counting.GuildID) {
			// The bot can no longer see this guild; its game simply
			// does not run until the next restart finds it again.
			log.Printf("Skipping counting for inaccessible guild %s", counting.GuildID)
			output.Skipped++
			continue
		}

		s.countings[counting.GuildID] = counting
		output.Loaded++
	}

	return output, nil
}

// HandleMessage runs one message through the evaluator and the
// sequence validator. See the Service interface for the error contract.
func (s *service) HandleMessage(ctx context.Context, input *HandleMessageInput) (*HandleMessageOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, ErrEmptyGuildID
	}

	if input.AuthorIsBot {
		return &HandleMessageOutput{Outcome: OutcomeIgnored}, nil
	}

	candidate, evalErr := mathexpr.Evaluate(input.Content)

	s.mu.Lock()

	counting, ok := s.countings[input.GuildID]
	if !ok || counting.ChannelID != input.ChannelID {
		s.mu.Unlock()
		return &HandleMessageOutput{Outcome: OutcomeIgnored}, nil
	}

	if evalErr != nil {
		if !counting.NumbersOnly {
			// Chatter is allowed in this channel
			s.mu.Unlock()
			return &HandleMessageOutput{Outcome: OutcomeIgnored}, nil
		}
		return s.rejectLocked(ctx, counting, input, &HandleMessageOutput{
			Outcome: OutcomeRejectedNotNumber,
		})
	}

	output := &HandleMessageOutput{Number: candidate}

	switch s.validate(counting, candidate, input.AuthorID) {
	case OutcomeAccepted:
		output.Outcome = OutcomeAccepted
		return s.acceptLocked(ctx, counting, input, candidate, output)
	case OutcomeRejectedRepeat:
		output.Outcome = OutcomeRejectedRepeat
	default:
		output.Outcome = OutcomeRejectedWrong
	}

	return s.rejectLocked(ctx, counting, input, output)
}

// validate is the three-way sequence decision. It reads state only;
// the caller holds the lock.
func (s *service) validate(counting *models.GuildCounting, candidate int, authorID string) Outcome {
	if counting.CurrentNum()+1 != candidate {
		return OutcomeRejectedWrong
	}

	// An empty holder means the count is fresh; any author may start
	if by := counting.CurrentBy(); by != "" && by == authorID {
		return OutcomeRejectedRepeat
	}

	return OutcomeAccepted
}

// acceptLocked applies an ACCEPT: bump the count, refresh the record
// when reached, then mirror the document. Called with mu held; unlocks.
func (s *service) acceptLocked(ctx context.Context, counting *models.GuildCounting, input *HandleMessageInput, candidate int, output *HandleMessageOutput) (*HandleMessageOutput, error) {
	if counting.RecordNum() <= candidate {
		counting.Record = &models.Record{
			Num:  candidate,
			Time: s.clock.Now(),
		}
		output.NewRecord = true
	}

	counting.CurrentNumber = &models.CurrentNumber{
		Num:       candidate,
		By:        input.AuthorID,
		MessageID: input.MessageID,
	}

	s.bumpTallyLocked(counting, input.AuthorID, true)
	saved := snapshot(counting)
	s.mu.Unlock()

	s.recordOutcome(ctx, input.GuildID, input.AuthorID, true)

	// The primary persistence write; its failure propagates but the
	// in-memory state above stays authoritative.
	err := s.countingRepo.SaveCounting(ctx, &countingRepo.SaveCountingInput{
		Counting: saved,
	})
	return output, err
}

// rejectLocked applies the consequences shared by every rejection:
// choose the milestone pin, reset the count to zero, clear the
// persisted field and hand back the penalty role. Called with mu held;
// unlocks.
func (s *service) rejectLocked(ctx context.Context, counting *models.GuildCounting, input *HandleMessageInput, output *HandleMessageOutput) (*HandleMessageOutput, error) {
	// Pin the outgoing milestone while it still is one
	if counting.CurrentNumber != nil &&
		counting.CurrentNumber.MessageID != "" &&
		counting.CurrentNumber.Num >= counting.RecordNum() {
		output.PinMessageID = counting.CurrentNumber.MessageID
	}

	output.FailRoleID = counting.FailRoleID

	counting.CurrentNumber = nil
	s.bumpTallyLocked(counting, input.AuthorID, false)
	s.mu.Unlock()

	s.recordOutcome(ctx, input.GuildID, input.AuthorID, false)

	err := s.countingRepo.ClearCurrentNumber(ctx, &countingRepo.ClearCurrentNumberInput{
		GuildID: input.GuildID,
	})
	if err != nil && errors.Is(err, countingRepo.ErrCountingNotFound) {
		// Nothing persisted yet for this guild; the reset is moot
		err = nil
	}
	return output, err
}

// bumpTallyLocked updates the in-memory per-guild tally, creating it
// lazily. Caller holds the lock.
func (s *service) bumpTallyLocked(counting *models.GuildCounting, userID string, correct bool) {
	if counting.Users == nil {
		counting.Users = make(map[string]*models.UserTally)
	}

	tally, ok := counting.Users[userID]
	if !ok {
		tally = &models.UserTally{}
		counting.Users[userID] = tally
	}

	if correct {
		tally.Correct++
	} else {
		tally.Incorrect++
	}
}

// recordOutcome mirrors one correct/incorrect event into the document
// store. Both writes are atomic increments and fire-and-forget: memory
// already holds the truth, so failures are logged and swallowed.
func (s *service) recordOutcome(ctx context.Context, guildID, userID string, correct bool) {
	err := s.userStatsRepo.IncrementStats(ctx, &userStatsRepo.IncrementStatsInput{
		UserID:  userID,
		Correct: correct,
	})
	if err != nil {
		log.Printf("Failed to increment global stats for user %s: %v", userID, err)
	}

	err = s.countingRepo.IncrementUserTally(ctx, &countingRepo.IncrementUserTallyInput{
		GuildID: guildID,
		UserID:  userID,
		Correct: correct,
	})
	if err != nil {
		log.Printf("Failed to increment guild tally for user %s in guild %s: %v", userID, guildID, err)
	}
}

// ConfigureGuild creates or updates a guild's counting setup
func (s *service) ConfigureGuild(ctx context.Context, input *ConfigureGuildInput) (*ConfigureGuildOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, ErrEmptyGuildID
	}

	if input.ChannelID == "" {
		return nil, ErrEmptyChannelID
	}

	s.mu.Lock()

	counting, ok := s.countings[input.GuildID]
	if ok {
		counting.ChannelID = input.ChannelID
		if input.FailRoleID != "" {
			counting.FailRoleID = input.FailRoleID
		}
		if input.NumbersOnly != nil {
			counting.NumbersOnly = *input.NumbersOnly
		}
	} else {
		counting = &models.GuildCounting{
			GuildID:     input.GuildID,
			ChannelID:   input.ChannelID,
			NumbersOnly: true,
			FailRoleID:  input.FailRoleID,
		}
		if input.NumbersOnly != nil {
			counting.NumbersOnly = *input.NumbersOnly
		}
		s.countings[input.GuildID] = counting
	}

	saved := snapshot(counting)
	s.mu.Unlock()

	err := s.countingRepo.SaveCounting(ctx, &countingRepo.SaveCountingInput{
		Counting: saved,
	})
	if err != nil {
		return nil, err
	}

	return &ConfigureGuildOutput{Created: !ok}, nil
}

// DisableGuild removes a guild's counting setup and its document
func (s *service) DisableGuild(ctx context.Context, input *DisableGuildInput) error {
	if input == nil || input.GuildID == "" {
		return ErrEmptyGuildID
	}

	s.mu.Lock()
	_, ok := s.countings[input.GuildID]
	delete(s.countings, input.GuildID)
	s.mu.Unlock()

	// The document can outlive the memory entry, e.g. a guild skipped
	// at load, so delete it either way
	err := s.countingRepo.DeleteCounting(ctx, &countingRepo.DeleteCountingInput{
		GuildID: input.GuildID,
	})
	if err != nil {
		return err
	}

	if !ok {
		return ErrNotConfigured
	}
	return nil
}

// GetGuildCounting returns a snapshot of a guild's game state
func (s *service) GetGuildCounting(ctx context.Context, input *GetGuildCountingInput) (*GetGuildCountingOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, ErrEmptyGuildID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counting, ok := s.countings[input.GuildID]
	if !ok {
		return nil, ErrNotConfigured
	}

	return &GetGuildCountingOutput{
		Counting: snapshot(counting),
	}, nil
}

// GetUserStats returns a member's global and per-guild tallies
func (s *service) GetUserStats(ctx context.Context, input *GetUserStatsInput) (*GetUserStatsOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, CountingError("user ID cannot be empty")
	}

	output := &GetUserStatsOutput{}

	global, err := s.userStatsRepo.GetStats(ctx, &userStatsRepo.GetStatsInput{
		UserID: input.UserID,
	})
	if err != nil && !errors.Is(err, userStatsRepo.ErrStatsNotFound) {
		return nil, err
	}
	output.Global = global

	if input.GuildID != "" {
		s.mu.Lock()
		if counting, ok := s.countings[input.GuildID]; ok {
			if tally, ok := counting.Users[input.UserID]; ok {
				copied := *tally
				output.Guild = &copied
			}
		}
		s.mu.Unlock()
	}

	return output, nil
}

// GetGlobalStatsPage returns one page of the cross-guild leaderboard.
// It reads the persisted documents rather than the in-memory map so
// the ordering index does the sorting.
func (s *service) GetGlobalStatsPage(ctx context.Context, input *GetGlobalStatsPageInput) (*GetGlobalStatsPageOutput, error) {
	if input == nil {
		input = &GetGlobalStatsPageInput{}
	}

	listOutput, err := s.countingRepo.ListCountings(ctx, &countingRepo.ListCountingsInput{
		Offset: input.Offset,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*GlobalStatsEntry, 0, len(listOutput.Countings))
	for _, counting := range listOutput.Countings {
		entry := &GlobalStatsEntry{
			GuildID:    counting.GuildID,
			CurrentNum: counting.CurrentNum(),
			CurrentBy:  counting.CurrentBy(),
		}

		for _, tally := range counting.Users {
			entry.Correct += tally.Correct
			entry.Incorrect += tally.Incorrect
		}

		entries = append(entries, entry)
	}

	return &GetGlobalStatsPageOutput{Entries: entries}, nil
}

// snapshot deep-copies a guild's state for read-only callers
func snapshot(counting *models.GuildCounting) *models.GuildCounting {
	copied := *counting

	if counting.CurrentNumber != nil {
		current := *counting.CurrentNumber
		copied.CurrentNumber = &current
	}

	if counting.Record != nil {
		record := *counting.Record
		copied.Record = &record
	}

	if counting.Users != nil {
		copied.Users = make(map[string]*models.UserTally, len(counting.Users))
		for userID, tally := range counting.Users {
			t := *tally
			copied.Users[userID] = &t
		}
	}

	return &copied
}
