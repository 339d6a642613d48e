package discord

import (
	"context"
	"fmt"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/bwmarrin/discordgo"
)

// CountSettingsCommand binds a channel to the counting game and tunes
// the guild's rules
type CountSettingsCommand struct {
	BaseCommand
	bot *Bot
}

// NewCountSettingsCommand creates a new count settings command
func NewCountSettingsCommand(bot *Bot) *CountSettingsCommand {
	return &CountSettingsCommand{
		BaseCommand: BaseCommand{
			Name:        "count-settings",
			Description: "Configure the counting game for this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel where the game is played",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "fail_role",
					Description: "Role applied temporarily to whoever breaks the count",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "numbers_only",
					Description: "Penalize any message that is not a number",
					Required:    false,
				},
			},
			DefaultMemberPermissions: &adminOnly,
		},
		bot: bot,
	}
}

// Handle processes the count settings command
func (c *CountSettingsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return RespondWithError(s, i, "This command can only be used in a server.")
	}

	input := &counting.ConfigureGuildInput{
		GuildID: i.GuildID,
	}

	for _, option := range i.ApplicationCommandData().Options {
		switch option.Name {
		case "channel":
			input.ChannelID = option.ChannelValue(nil).ID
		case "fail_role":
			input.FailRoleID = option.RoleValue(nil, i.GuildID).ID
		case "numbers_only":
			value := option.BoolValue()
			input.NumbersOnly = &value
		}
	}

	output, err := c.bot.countingService.ConfigureGuild(context.Background(), input)
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to save counting settings: %v", err))
	}

	if output.Created {
		return RespondWithEphemeralMessage(s, i,
			fmt.Sprintf("Counting is now enabled in <#%s>. The game starts at 1.", input.ChannelID))
	}
	return RespondWithEphemeralMessage(s, i,
		fmt.Sprintf("Counting settings updated. The game continues in <#%s>.", input.ChannelID))
}
