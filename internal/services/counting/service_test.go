package counting

import (
	"context"
	"strconv"
	"testing"
	"time"

	clockMocks "github.com/OnekiDevs/oneki/internal/common/clock/mocks"
	countingRepo "github.com/OnekiDevs/oneki/internal/repositories/counting"
	userStatsRepo "github.com/OnekiDevs/oneki/internal/repositories/userstats"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CountingServiceTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockClock *clockMocks.MockClock
	mr        *miniredis.Miniredis
	client    *redis.Client
	repo      countingRepo.Repository
	statsRepo userStatsRepo.Repository
	service   Service
	ctx       context.Context

	testTime      time.Time
	testGuildID   string
	testChannelID string
}

func (s *CountingServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.ctx = context.Background()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	s.repo, err = countingRepo.NewRedis(&countingRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)

	s.statsRepo, err = userStatsRepo.NewRedis(&userStatsRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)

	s.testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	s.testGuildID = "test-guild-id"
	s.testChannelID = "test-channel-id"

	svc, err := NewService(&Config{
		CountingRepo:  s.repo,
		UserStatsRepo: s.statsRepo,
		Clock:         s.mockClock,
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *CountingServiceTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
	s.mockCtrl.Finish()
}

func TestCountingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CountingServiceTestSuite))
}

// configureGuild sets up the standard test guild
func (s *CountingServiceTestSuite) configureGuild() {
	_, err := s.service.ConfigureGuild(s.ctx, &ConfigureGuildInput{
		GuildID:   s.testGuildID,
		ChannelID: s.testChannelID,
	})
	s.Require().NoError(err)
}

// count sends one message through the engine
func (s *CountingServiceTestSuite) count(authorID, content string) *HandleMessageOutput {
	output, err := s.service.HandleMessage(s.ctx, &HandleMessageInput{
		GuildID:   s.testGuildID,
		ChannelID: s.testChannelID,
		MessageID: "message-" + content,
		AuthorID:  authorID,
		Content:   content,
	})
	s.Require().NoError(err)
	s.Require().NotNil(output)
	return output
}

func (s *CountingServiceTestSuite) TestNewServiceValidation() {
	_, err := NewService(nil)
	s.Equal(ErrNilConfig, err)

	_, err = NewService(&Config{UserStatsRepo: s.statsRepo, Clock: s.mockClock})
	s.Equal(ErrNilCountingRepo, err)

	_, err = NewService(&Config{CountingRepo: s.repo, Clock: s.mockClock})
	s.Equal(ErrNilUserStatsRepo, err)

	_, err = NewService(&Config{CountingRepo: s.repo, UserStatsRepo: s.statsRepo})
	s.Equal(ErrNilClock, err)
}

func (s *CountingServiceTestSuite) TestAcceptChain() {
	s.configureGuild()

	authors := []string{"user-a", "user-b"}
	for i := 1; i <= 6; i++ {
		output := s.count(authors[i%2], intContent(i))
		s.Equal(OutcomeAccepted, output.Outcome, "count %d", i)
		s.Equal(i, output.Number)
		s.True(output.NewRecord)
	}

	snap, err := s.service.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(snap.Counting.CurrentNumber)
	s.Equal(6, snap.Counting.CurrentNumber.Num)
	s.Equal("user-a", snap.Counting.CurrentNumber.By)
	s.Require().NotNil(snap.Counting.Record)
	s.Equal(6, snap.Counting.Record.Num)
	s.Equal(s.testTime, snap.Counting.Record.Time)
}

func (s *CountingServiceTestSuite) TestFirstNumberMustBeOne() {
	s.configureGuild()

	output := s.count("user-a", "5")
	s.Equal(OutcomeRejectedWrong, output.Outcome)

	output = s.count("user-a", "1")
	s.Equal(OutcomeAccepted, output.Outcome)
}

func (s *CountingServiceTestSuite) TestExpressionsCount() {
	s.configureGuild()

	s.Equal(OutcomeAccepted, s.count("user-a", "sqrt(1)").Outcome)
	s.Equal(OutcomeAccepted, s.count("user-b", "1+1").Outcome)
	s.Equal(OutcomeAccepted, s.count("user-a", "9/3").Outcome)
	s.Equal(OutcomeAccepted, s.count("user-b", "2^2").Outcome)
}

func (s *CountingServiceTestSuite) TestRejectRepeat() {
	s.configureGuild()

	s.count("user-a", "1")
	output := s.count("user-a", "2")

	s.Equal(OutcomeRejectedRepeat, output.Outcome)

	// The count resets; the record survives
	snap, err := s.service.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Nil(snap.Counting.CurrentNumber)
	s.Require().NotNil(snap.Counting.Record)
	s.Equal(1, snap.Counting.Record.Num)
}

func (s *CountingServiceTestSuite) TestRejectWrongNumber() {
	s.configureGuild()

	s.count("user-a", "1")
	s.count("user-b", "2")
	output := s.count("user-a", "7")

	s.Equal(OutcomeRejectedWrong, output.Outcome)
	s.Equal(7, output.Number)

	snap, err := s.service.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Nil(snap.Counting.CurrentNumber)

	// The persisted mirror dropped the field too
	persisted, err := s.repo.GetCounting(s.ctx, &countingRepo.GetCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Nil(persisted.CurrentNumber)
	s.Require().NotNil(persisted.Record)
	s.Equal(2, persisted.Record.Num)
}

func (s *CountingServiceTestSuite) TestRecordIsMonotonic() {
	s.configureGuild()

	s.count("user-a", "1")
	s.count("user-b", "2")
	s.count("user-a", "3")
	s.count("user-b", "9") // breaks at record 3

	s.count("user-a", "1")
	output := s.count("user-b", "2")
	s.Equal(OutcomeAccepted, output.Outcome)
	s.False(output.NewRecord, "2 is below the record of 3")

	snap, err := s.service.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(3, snap.Counting.Record.Num)

	// Reaching the record again refreshes it
	output = s.count("user-a", "3")
	s.Equal(OutcomeAccepted, output.Outcome)
	s.True(output.NewRecord)
}

func (s *CountingServiceTestSuite) TestMilestonePinOnBreak() {
	s.configureGuild()

	s.count("user-a", "1")
	s.count("user-b", "2")

	// Count 2 is at the record, so breaking the chain pins it
	output := s.count("user-a", "99")
	s.Equal(OutcomeRejectedWrong, output.Outcome)
	s.Equal("message-2", output.PinMessageID)

	// Rebuild below the record; breaking now pins nothing
	s.count("user-a", "1")
	output = s.count("user-a", "2")
	s.Equal(OutcomeRejectedRepeat, output.Outcome)
	s.Empty(output.PinMessageID)
}

func (s *CountingServiceTestSuite) TestFailRolePropagated() {
	numbersOnly := true
	_, err := s.service.ConfigureGuild(s.ctx, &ConfigureGuildInput{
		GuildID:     s.testGuildID,
		ChannelID:   s.testChannelID,
		FailRoleID:  "role-fail",
		NumbersOnly: &numbersOnly,
	})
	s.Require().NoError(err)

	output := s.count("user-a", "42")
	s.Equal(OutcomeRejectedWrong, output.Outcome)
	s.Equal("role-fail", output.FailRoleID)

	output = s.count("user-a", "not a number")
	s.Equal(OutcomeRejectedNotNumber, output.Outcome)
	s.Equal("role-fail", output.FailRoleID)

	output = s.count("user-a", "1")
	s.Equal(OutcomeAccepted, output.Outcome)
	s.Empty(output.FailRoleID)
}

func (s *CountingServiceTestSuite) TestNumbersOnlyMatrix() {
	s.configureGuild()

	// numbers_only defaults to true: chatter is a violation
	output := s.count("user-a", "hello there")
	s.Equal(OutcomeRejectedNotNumber, output.Outcome)

	numbersOnly := false
	_, err := s.service.ConfigureGuild(s.ctx, &ConfigureGuildInput{
		GuildID:     s.testGuildID,
		ChannelID:   s.testChannelID,
		NumbersOnly: &numbersOnly,
	})
	s.Require().NoError(err)

	// Now chatter is ignored entirely
	output = s.count("user-a", "hello there")
	s.Equal(OutcomeIgnored, output.Outcome)
}

func (s *CountingServiceTestSuite) TestIgnoresOtherChannelsAndBots() {
	s.configureGuild()

	output, err := s.service.HandleMessage(s.ctx, &HandleMessageInput{
		GuildID:   s.testGuildID,
		ChannelID: "some-other-channel",
		AuthorID:  "user-a",
		Content:   "1",
	})
	s.Require().NoError(err)
	s.Equal(OutcomeIgnored, output.Outcome)

	output, err = s.service.HandleMessage(s.ctx, &HandleMessageInput{
		GuildID:     s.testGuildID,
		ChannelID:   s.testChannelID,
		AuthorID:    "bot-user",
		AuthorIsBot: true,
		Content:     "1",
	})
	s.Require().NoError(err)
	s.Equal(OutcomeIgnored, output.Outcome)

	output, err = s.service.HandleMessage(s.ctx, &HandleMessageInput{
		GuildID:   "unconfigured-guild",
		ChannelID: s.testChannelID,
		AuthorID:  "user-a",
		Content:   "1",
	})
	s.Require().NoError(err)
	s.Equal(OutcomeIgnored, output.Outcome)
}

func (s *CountingServiceTestSuite) TestStatsRoundTrip() {
	s.configureGuild()

	// user-a: 2 correct, 1 incorrect; user-b: 1 correct
	s.count("user-a", "1")
	s.count("user-b", "2")
	s.count("user-a", "3")
	s.count("user-a", "4") // repeat violation

	statsA, err := s.service.GetUserStats(s.ctx, &GetUserStatsInput{
		GuildID: s.testGuildID,
		UserID:  "user-a",
	})
	s.Require().NoError(err)
	s.Require().NotNil(statsA.Global)
	s.Equal(2, statsA.Global.Correct)
	s.Equal(1, statsA.Global.Incorrect)
	s.Require().NotNil(statsA.Guild)
	s.Equal(2, statsA.Guild.Correct)
	s.Equal(1, statsA.Guild.Incorrect)

	// The persisted mirror agrees with memory
	persisted, err := s.repo.GetCounting(s.ctx, &countingRepo.GetCountingInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(persisted.Users["user-a"])
	s.Equal(2, persisted.Users["user-a"].Correct)
	s.Equal(1, persisted.Users["user-a"].Incorrect)
	s.Equal(1, persisted.Users["user-b"].Correct)
}

func (s *CountingServiceTestSuite) TestStatsForUnknownUser() {
	s.configureGuild()

	stats, err := s.service.GetUserStats(s.ctx, &GetUserStatsInput{
		GuildID: s.testGuildID,
		UserID:  "never-counted",
	})
	s.Require().NoError(err)
	s.Nil(stats.Global)
	s.Nil(stats.Guild)
}

func (s *CountingServiceTestSuite) TestLoadRebuildsState() {
	s.configureGuild()
	s.count("user-a", "1")
	s.count("user-b", "2")

	// A fresh service instance sees the same game after Load
	reloaded, err := NewService(&Config{
		CountingRepo:  s.repo,
		UserStatsRepo: s.statsRepo,
		Clock:         s.mockClock,
	})
	s.Require().NoError(err)

	loadOutput, err := reloaded.Load(s.ctx, &LoadInput{})
	s.Require().NoError(err)
	s.Equal(1, loadOutput.Loaded)
	s.Equal(0, loadOutput.Skipped)

	output, err := reloaded.HandleMessage(s.ctx, &HandleMessageInput{
		GuildID:   s.testGuildID,
		ChannelID: s.testChannelID,
		MessageID: "message-3",
		AuthorID:  "user-a",
		Content:   "3",
	})
	s.Require().NoError(err)
	s.Equal(OutcomeAccepted, output.Outcome)
}

func (s *CountingServiceTestSuite) TestLoadSkipsInaccessibleGuilds() {
	s.configureGuild()

	_, err := s.service.ConfigureGuild(s.ctx, &ConfigureGuildInput{
		GuildID:   "lost-guild",
		ChannelID: "lost-channel",
	})
	s.Require().NoError(err)

	reloaded, err := NewService(&Config{
		CountingRepo:  s.repo,
		UserStatsRepo: s.statsRepo,
		Clock:         s.mockClock,
	})
	s.Require().NoError(err)

	loadOutput, err := reloaded.Load(s.ctx, &LoadInput{
		GuildFilter: func(guildID string) bool {
			return guildID != "lost-guild"
		},
	})
	s.Require().NoError(err)
	s.Equal(1, loadOutput.Loaded)
	s.Equal(1, loadOutput.Skipped)

	_, err = reloaded.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: "lost-guild",
	})
	s.Equal(ErrNotConfigured, err)
}

func (s *CountingServiceTestSuite) TestDisableGuild() {
	s.configureGuild()
	s.count("user-a", "1")

	err := s.service.DisableGuild(s.ctx, &DisableGuildInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)

	_, err = s.service.GetGuildCounting(s.ctx, &GetGuildCountingInput{
		GuildID: s.testGuildID,
	})
	s.Equal(ErrNotConfigured, err)

	_, err = s.repo.GetCounting(s.ctx, &countingRepo.GetCountingInput{
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, countingRepo.ErrCountingNotFound)

	err = s.service.DisableGuild(s.ctx, &DisableGuildInput{
		GuildID: s.testGuildID,
	})
	s.Equal(ErrNotConfigured, err)
}

func (s *CountingServiceTestSuite) TestDisableGuildDeletesSkippedGuildDocument() {
	s.configureGuild()
	s.count("user-a", "1")

	// A fresh instance that skipped this guild at load has no memory
	// entry, but disabling must still delete the persisted document
	reloaded, err := NewService(&Config{
		CountingRepo:  s.repo,
		UserStatsRepo: s.statsRepo,
		Clock:         s.mockClock,
	})
	s.Require().NoError(err)

	loadOutput, err := reloaded.Load(s.ctx, &LoadInput{
		GuildFilter: func(guildID string) bool {
			return guildID != s.testGuildID
		},
	})
	s.Require().NoError(err)
	s.Equal(1, loadOutput.Skipped)

	err = reloaded.DisableGuild(s.ctx, &DisableGuildInput{
		GuildID: s.testGuildID,
	})
	s.Equal(ErrNotConfigured, err)

	_, err = s.repo.GetCounting(s.ctx, &countingRepo.GetCountingInput{
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, countingRepo.ErrCountingNotFound)
}

func (s *CountingServiceTestSuite) TestOutcomeRejected() {
	s.False(OutcomeIgnored.Rejected())
	s.False(OutcomeAccepted.Rejected())
	s.True(OutcomeRejectedRepeat.Rejected())
	s.True(OutcomeRejectedWrong.Rejected())
	s.True(OutcomeRejectedNotNumber.Rejected())
}

func (s *CountingServiceTestSuite) TestGlobalStatsPage() {
	for i, guildID := range []string{"guild-1", "guild-2", "guild-3"} {
		_, err := s.service.ConfigureGuild(s.ctx, &ConfigureGuildInput{
			GuildID:   guildID,
			ChannelID: "channel",
		})
		s.Require().NoError(err)

		// guild-1 counts to 1, guild-2 to 2, guild-3 to 3
		authors := []string{"user-a", "user-b"}
		for n := 1; n <= i+1; n++ {
			_, err := s.service.HandleMessage(s.ctx, &HandleMessageInput{
				GuildID:   guildID,
				ChannelID: "channel",
				MessageID: "m",
				AuthorID:  authors[n%2],
				Content:   intContent(n),
			})
			s.Require().NoError(err)
		}
	}

	page, err := s.service.GetGlobalStatsPage(s.ctx, &GetGlobalStatsPageInput{
		Offset: 0,
		Limit:  2,
	})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 2)
	s.Equal("guild-3", page.Entries[0].GuildID)
	s.Equal(3, page.Entries[0].CurrentNum)
	s.Equal(3, page.Entries[0].Correct)
	s.Equal("guild-2", page.Entries[1].GuildID)

	page, err = s.service.GetGlobalStatsPage(s.ctx, &GetGlobalStatsPageInput{
		Offset: 2,
		Limit:  2,
	})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal("guild-1", page.Entries[0].GuildID)

	page, err = s.service.GetGlobalStatsPage(s.ctx, &GetGlobalStatsPageInput{
		Offset: 4,
		Limit:  2,
	})
	s.Require().NoError(err)
	s.Empty(page.Entries)
}

// intContent formats a count as message text
func intContent(n int) string {
	return strconv.Itoa(n)
}
