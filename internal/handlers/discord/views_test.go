package discord

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
)

// stubCountingService serves a fixed leaderboard for view tests
type stubCountingService struct {
	entries []*counting.GlobalStatsEntry
}

func (s *stubCountingService) Load(ctx context.Context, input *counting.LoadInput) (*counting.LoadOutput, error) {
	return &counting.LoadOutput{}, nil
}

func (s *stubCountingService) HandleMessage(ctx context.Context, input *counting.HandleMessageInput) (*counting.HandleMessageOutput, error) {
	return &counting.HandleMessageOutput{Outcome: counting.OutcomeIgnored}, nil
}

func (s *stubCountingService) ConfigureGuild(ctx context.Context, input *counting.ConfigureGuildInput) (*counting.ConfigureGuildOutput, error) {
	return &counting.ConfigureGuildOutput{}, nil
}

func (s *stubCountingService) DisableGuild(ctx context.Context, input *counting.DisableGuildInput) error {
	return nil
}

func (s *stubCountingService) GetGuildCounting(ctx context.Context, input *counting.GetGuildCountingInput) (*counting.GetGuildCountingOutput, error) {
	return nil, counting.ErrNotConfigured
}

func (s *stubCountingService) GetUserStats(ctx context.Context, input *counting.GetUserStatsInput) (*counting.GetUserStatsOutput, error) {
	return &counting.GetUserStatsOutput{}, nil
}

func (s *stubCountingService) GetGlobalStatsPage(ctx context.Context, input *counting.GetGlobalStatsPageInput) (*counting.GetGlobalStatsPageOutput, error) {
	start := input.Offset
	if start > len(s.entries) {
		start = len(s.entries)
	}
	end := len(s.entries)
	if input.Limit > 0 && start+input.Limit < end {
		end = start + input.Limit
	}
	return &counting.GetGlobalStatsPageOutput{Entries: s.entries[start:end]}, nil
}

type GlobalStatsViewTestSuite struct {
	suite.Suite
	bot *Bot
}

func (s *GlobalStatsViewTestSuite) SetupTest() {
	// Four pages worth of guilds: 6+6+6+2
	stub := &stubCountingService{}
	for n := 1; n <= 20; n++ {
		stub.entries = append(stub.entries, &counting.GlobalStatsEntry{
			GuildID:    fmt.Sprintf("guild-%d", n),
			CurrentNum: 21 - n,
			Correct:    21 - n,
		})
	}

	messagingSvc, err := messaging.NewService(&messaging.Config{
		DefaultLanguage: messaging.LanguageEnglish,
	})
	s.Require().NoError(err)

	bot, err := New(&Config{
		Token:            "test-token",
		CountingService:  stub,
		MessagingService: messagingSvc,
	})
	s.Require().NoError(err)
	s.bot = bot

	// Prime the state cache so name lookups never leave the process
	for n := 1; n <= 20; n++ {
		err := bot.session.State.GuildAdd(&discordgo.Guild{
			ID:   fmt.Sprintf("guild-%d", n),
			Name: fmt.Sprintf("Guild %d", n),
		})
		s.Require().NoError(err)
	}
}

func TestGlobalStatsViewTestSuite(t *testing.T) {
	suite.Run(t, new(GlobalStatsViewTestSuite))
}

func (s *GlobalStatsViewTestSuite) openView() *globalStatsView {
	i := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "user-1"},
			},
		},
	}

	_, view, err := s.bot.openGlobalStatsView(s.bot.session, i)
	s.Require().NoError(err)
	return view
}

func (s *GlobalStatsViewTestSuite) TestEventsDispatchSequentially() {
	// One event at a time, so counts are validated in delivery order
	s.True(s.bot.session.SyncEvents)
	s.NotZero(s.bot.session.Identify.Intents & discordgo.IntentMessageContent)
}

func (s *GlobalStatsViewTestSuite) TestConcurrentClicksAreSerialized() {
	view := s.openView()

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.bot.turnStatsPage(s.bot.session, view, "session-1", "next")
			s.NoError(err)
		}()
	}
	wg.Wait()

	// Eight clicks walk past the four pages and park on the
	// end-of-pages screen
	s.Len(view.pages, 4)
	s.True(view.exhausted)
	s.Equal(len(view.pages), view.pageIndex)
	s.Nil(view.currentPage())
}

func (s *GlobalStatsViewTestSuite) TestPagerWalksForwardAndBack() {
	view := s.openView()
	s.Len(view.pages, 1)
	s.Equal(0, view.pageIndex)

	embed, _, err := s.bot.turnStatsPage(s.bot.session, view, "session-1", "next")
	s.Require().NoError(err)
	s.Equal(1, view.pageIndex)
	s.Len(view.pages, 2)
	s.Len(embed.Fields, 6)
	s.Equal("Guild 7", embed.Fields[0].Name)

	embed, _, err = s.bot.turnStatsPage(s.bot.session, view, "session-1", "back")
	s.Require().NoError(err)
	s.Equal(0, view.pageIndex)
	s.Equal("Guild 1", embed.Fields[0].Name)

	// The back page came from the cache, not another fetch
	s.Len(view.pages, 2)
}
