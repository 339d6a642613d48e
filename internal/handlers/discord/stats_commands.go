package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// GlobalStatsCommand opens the paginated cross-server leaderboard
type GlobalStatsCommand struct {
	BaseCommand
	bot *Bot
}

// NewGlobalStatsCommand creates a new global stats command
func NewGlobalStatsCommand(bot *Bot) *GlobalStatsCommand {
	return &GlobalStatsCommand{
		BaseCommand: BaseCommand{
			Name:        "global-stats",
			Description: "Show the counting leaderboard across every server",
		},
		bot: bot,
	}
}

// Handle processes the global stats command
func (c *GlobalStatsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	sessionID, view, err := c.bot.openGlobalStatsView(s, i)
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to load the leaderboard: %v", err))
	}

	if len(view.pages) == 0 {
		c.bot.mu.Lock()
		delete(c.bot.views, sessionID)
		c.bot.mu.Unlock()
		return RespondWithMessage(s, i, view.copy.GlobalEmpty)
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{renderGlobalStatsPage(view.copy, view.currentPage(), view.pageIndex)},
			Components: statsButtons(sessionID, view),
		},
	})
}

// ServerStatsCommand shows the current guild's count and record
type ServerStatsCommand struct {
	BaseCommand
	bot *Bot
}

// NewServerStatsCommand creates a new server stats command
func NewServerStatsCommand(bot *Bot) *ServerStatsCommand {
	return &ServerStatsCommand{
		BaseCommand: BaseCommand{
			Name:        "server-stats",
			Description: "Show this server's counting progress and record",
		},
		bot: bot,
	}
}

// Handle processes the server stats command
func (c *ServerStatsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return RespondWithError(s, i, "This command can only be used in a server.")
	}

	copyOutput, err := c.bot.messagingService.GetStatsCopy(context.Background(), &messaging.GetStatsCopyInput{
		Language: c.bot.config.Language,
	})
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to build the stats view: %v", err))
	}

	output, err := c.bot.countingService.GetGuildCounting(context.Background(), &counting.GetGuildCountingInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		if errors.Is(err, counting.ErrNotConfigured) {
			return RespondWithEphemeralMessage(s, i, copyOutput.ServerNotConfigured)
		}
		return RespondWithError(s, i, fmt.Sprintf("Failed to look up this server's game: %v", err))
	}

	return RespondWithEmbed(s, i, renderServerStats(copyOutput, c.bot.guildName(s, i.GuildID), output.Counting))
}

// UserStatsCommand shows a member's counting accuracy, globally and in
// the current guild
type UserStatsCommand struct {
	BaseCommand
	bot *Bot
}

// NewUserStatsCommand creates a new user stats command
func NewUserStatsCommand(bot *Bot) *UserStatsCommand {
	return &UserStatsCommand{
		BaseCommand: BaseCommand{
			Name:        "user-stats",
			Description: "Show a member's counting stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Member to look up, defaults to you",
					Required:    false,
				},
			},
		},
		bot: bot,
	}
}

// Handle processes the user stats command
func (c *UserStatsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	target := interactionUser(i)
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == "member" {
			target = option.UserValue(s)
		}
	}
	if target == nil {
		return RespondWithError(s, i, "Could not resolve the member to look up.")
	}

	copyOutput, err := c.bot.messagingService.GetStatsCopy(context.Background(), &messaging.GetStatsCopyInput{
		Language: c.bot.config.Language,
	})
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to build the stats view: %v", err))
	}

	stats, err := c.bot.countingService.GetUserStats(context.Background(), &counting.GetUserStatsInput{
		GuildID: i.GuildID,
		UserID:  target.ID,
	})
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to look up stats for %s: %v", target.Username, err))
	}

	return RespondWithEmbed(s, i, renderUserStats(copyOutput, target, stats))
}

// interactionUser resolves the full user object of the acting member
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
