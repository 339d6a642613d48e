package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// statsPageSize is how many guilds a leaderboard page shows
const statsPageSize = 6

// globalStatsEntry is one leaderboard row with its guild name resolved
type globalStatsEntry struct {
	GuildName  string
	CurrentNum int
	CurrentBy  string
	Correct    int
	Incorrect  int
}

// globalStatsView is one member's open leaderboard session. Pages are
// fetched forward on demand and cached so the back button never hits
// the store again.
type globalStatsView struct {
	userID string
	copy   *messaging.GetStatsCopyOutput

	// mu serializes clicks on the same session; the gateway can
	// deliver overlapping interactions for one message
	mu        sync.Mutex
	pages     [][]*globalStatsEntry
	pageIndex int

	// exhausted is set once a fetch comes back empty
	exhausted bool
}

// openGlobalStatsView starts a leaderboard session for the member who
// ran the command and returns its first rendered page
func (b *Bot) openGlobalStatsView(s *discordgo.Session, i *discordgo.InteractionCreate) (string, *globalStatsView, error) {
	copyOutput, err := b.messagingService.GetStatsCopy(context.Background(), &messaging.GetStatsCopyInput{
		Language: b.config.Language,
	})
	if err != nil {
		return "", nil, err
	}

	view := &globalStatsView{
		userID: interactionUserID(i),
		copy:   copyOutput,
	}

	if err := b.fetchStatsPage(s, view); err != nil {
		return "", nil, err
	}

	sessionID := b.uuid.NewUUID()
	b.mu.Lock()
	b.views[sessionID] = view
	b.mu.Unlock()

	return sessionID, view, nil
}

// fetchStatsPage loads the next leaderboard page into the view's cache
func (b *Bot) fetchStatsPage(s *discordgo.Session, view *globalStatsView) error {
	output, err := b.countingService.GetGlobalStatsPage(context.Background(), &counting.GetGlobalStatsPageInput{
		Offset: len(view.pages) * statsPageSize,
		Limit:  statsPageSize,
	})
	if err != nil {
		return err
	}

	if len(output.Entries) == 0 {
		view.exhausted = true
		return nil
	}

	page := make([]*globalStatsEntry, 0, len(output.Entries))
	for _, entry := range output.Entries {
		page = append(page, &globalStatsEntry{
			GuildName:  b.guildName(s, entry.GuildID),
			CurrentNum: entry.CurrentNum,
			CurrentBy:  entry.CurrentBy,
			Correct:    entry.Correct,
			Incorrect:  entry.Incorrect,
		})
	}
	view.pages = append(view.pages, page)

	if len(output.Entries) < statsPageSize {
		view.exhausted = true
	}
	return nil
}

// guildName resolves a guild's display name, falling back to its ID
func (b *Bot) guildName(s *discordgo.Session, guildID string) string {
	if guild, err := s.State.Guild(guildID); err == nil && guild.Name != "" {
		return guild.Name
	}
	if guild, err := s.Guild(guildID); err == nil {
		return guild.Name
	}
	return guildID
}

// currentPage returns the view's visible page, nil when the cursor sits
// past the last one
func (v *globalStatsView) currentPage() []*globalStatsEntry {
	if v.pageIndex >= len(v.pages) {
		return nil
	}
	return v.pages[v.pageIndex]
}

// statsButtons builds the pager row for a leaderboard session
func statsButtons(sessionID string, view *globalStatsView) []discordgo.MessageComponent {
	atEnd := view.exhausted && view.pageIndex >= len(view.pages)

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:back", componentGlobalStats, sessionID),
					Disabled: view.pageIndex == 0,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:next", componentGlobalStats, sessionID),
					Disabled: atEnd,
				},
				discordgo.Button{
					Label:    "✖",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("%s:%s:exit", componentGlobalStats, sessionID),
				},
			},
		},
	}
}

// turnStatsPage applies one pager action to a view and renders the
// result, all under the view lock
func (b *Bot) turnStatsPage(s *discordgo.Session, view *globalStatsView, sessionID, action string) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	view.mu.Lock()
	defer view.mu.Unlock()

	switch action {
	case "next":
		if view.pageIndex+1 >= len(view.pages) && !view.exhausted {
			if err := b.fetchStatsPage(s, view); err != nil {
				return nil, nil, err
			}
		}
		// Step onto the end-of-pages screen at most once
		if view.pageIndex < len(view.pages) {
			view.pageIndex++
		}

	case "back":
		if view.pageIndex > 0 {
			view.pageIndex--
		}
	}

	return renderGlobalStatsPage(view.copy, view.currentPage(), view.pageIndex),
		statsButtons(sessionID, view), nil
}

// handleGlobalStatsButton advances, rewinds or closes a leaderboard session
func (b *Bot) handleGlobalStatsButton(s *discordgo.Session, i *discordgo.InteractionCreate, sessionID, action string) error {
	b.mu.Lock()
	view, ok := b.views[sessionID]
	b.mu.Unlock()

	if !ok {
		return RespondWithEphemeralMessage(s, i, "This leaderboard is no longer active.")
	}
	if interactionUserID(i) != view.userID {
		return RespondWithEphemeralMessage(s, i, "Only the member who opened the leaderboard can page it.")
	}

	if action == "exit" {
		b.mu.Lock()
		delete(b.views, sessionID)
		b.mu.Unlock()

		view.mu.Lock()
		embed := renderGlobalStatsPage(view.copy, view.currentPage(), view.pageIndex)
		view.mu.Unlock()

		return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: []discordgo.MessageComponent{},
			},
		})
	}

	embed, components, err := b.turnStatsPage(s, view, sessionID, action)
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to load the next page: %v", err))
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}
