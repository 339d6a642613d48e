package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// confirmTimeout is how long the disable prompt waits for an answer
const confirmTimeout = 60 * time.Second

// pendingConfirm tracks one open disable prompt until a button click
// or the timeout resolves it
type pendingConfirm struct {
	guildID     string
	userID      string
	interaction *discordgo.Interaction
	copy        *messaging.GetConfirmCopyOutput
	timer       *time.Timer
}

// DisableCountingCommand removes a guild's counting game after an
// explicit confirmation
type DisableCountingCommand struct {
	BaseCommand
	bot *Bot
}

// NewDisableCountingCommand creates a new disable counting command
func NewDisableCountingCommand(bot *Bot) *DisableCountingCommand {
	return &DisableCountingCommand{
		BaseCommand: BaseCommand{
			Name:                     "disable-counting",
			Description:              "Disable the counting game and forget its state",
			DefaultMemberPermissions: &adminOnly,
		},
		bot: bot,
	}
}

// Handle processes the disable counting command
func (c *DisableCountingCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return RespondWithError(s, i, "This command can only be used in a server.")
	}

	// Nothing to disable when the guild never configured the game
	if _, err := c.bot.countingService.GetGuildCounting(context.Background(), &counting.GetGuildCountingInput{
		GuildID: i.GuildID,
	}); err != nil {
		if errors.Is(err, counting.ErrNotConfigured) {
			return RespondWithEphemeralMessage(s, i, "Counting is not configured in this server.")
		}
		return RespondWithError(s, i, fmt.Sprintf("Failed to look up counting settings: %v", err))
	}

	copyOutput, err := c.bot.messagingService.GetConfirmCopy(context.Background(), &messaging.GetConfirmCopyInput{
		Language: c.bot.config.Language,
	})
	if err != nil {
		return RespondWithError(s, i, fmt.Sprintf("Failed to build confirmation prompt: %v", err))
	}

	sessionID := c.bot.uuid.NewUUID()
	confirm := &pendingConfirm{
		guildID:     i.GuildID,
		userID:      interactionUserID(i),
		interaction: i.Interaction,
		copy:        copyOutput,
	}
	confirm.timer = time.AfterFunc(confirmTimeout, func() {
		c.bot.expireConfirm(s, sessionID)
	})

	c.bot.mu.Lock()
	c.bot.confirms[sessionID] = confirm
	c.bot.mu.Unlock()

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    copyOutput.Prompt,
			Components: confirmButtons(sessionID),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func confirmButtons(sessionID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("%s:%s:yes", componentDisableCounting, sessionID),
				},
				discordgo.Button{
					Label:    "No",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:no", componentDisableCounting, sessionID),
				},
			},
		},
	}
}

// handleDisableCountingButton resolves a confirmation prompt
func (b *Bot) handleDisableCountingButton(s *discordgo.Session, i *discordgo.InteractionCreate, sessionID, action string) error {
	b.mu.Lock()
	confirm, ok := b.confirms[sessionID]
	if ok && interactionUserID(i) == confirm.userID {
		delete(b.confirms, sessionID)
	}
	b.mu.Unlock()

	if !ok {
		return RespondWithEphemeralMessage(s, i, "This confirmation is no longer active.")
	}
	if interactionUserID(i) != confirm.userID {
		return RespondWithEphemeralMessage(s, i, "Only the member who ran the command can answer.")
	}

	confirm.timer.Stop()

	content := confirm.copy.Cancelled
	if action == "yes" {
		if err := b.countingService.DisableGuild(context.Background(), &counting.DisableGuildInput{
			GuildID: confirm.guildID,
		}); err != nil && !errors.Is(err, counting.ErrNotConfigured) {
			return RespondWithError(s, i, fmt.Sprintf("Failed to disable counting: %v", err))
		}
		content = confirm.copy.Confirmed
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
}

// expireConfirm replaces an unanswered prompt with the timeout copy
func (b *Bot) expireConfirm(s *discordgo.Session, sessionID string) {
	b.mu.Lock()
	confirm, ok := b.confirms[sessionID]
	delete(b.confirms, sessionID)
	b.mu.Unlock()

	if !ok {
		return
	}

	if _, err := s.InteractionResponseEdit(confirm.interaction, &discordgo.WebhookEdit{
		Content:    &confirm.copy.TimedOut,
		Components: &[]discordgo.MessageComponent{},
	}); err != nil {
		log.Printf("Failed to expire disable confirmation %s: %v", sessionID, err)
	}
}

// interactionUserID resolves the acting user for guild and DM interactions
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
