package discord

import (
	"context"
	"log"
	"time"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// Reaction emojis for accepted and rejected counts
const (
	reactionYes = "✅"
	reactionNo  = "❌"
)

// applyConsequences performs the chat-platform side effects of a
// validator decision. Every call is best-effort: a failed reaction,
// pin or role edit is logged and the game state stands as decided.
func (b *Bot) applyConsequences(s *discordgo.Session, m *discordgo.MessageCreate, output *counting.HandleMessageOutput) {
	if !output.Outcome.Rejected() {
		if err := s.MessageReactionAdd(m.ChannelID, m.ID, reactionYes); err != nil {
			log.Printf("Failed to add reaction in channel %s: %v", m.ChannelID, err)
		}
		return
	}

	if err := s.MessageReactionAdd(m.ChannelID, m.ID, reactionNo); err != nil {
		log.Printf("Failed to add reaction in channel %s: %v", m.ChannelID, err)
	}

	// Non-numeric content gets no shaming message, only the reaction
	if output.Outcome != counting.OutcomeRejectedNotNumber {
		b.sendViolationMessage(s, m, output.Outcome)
	}

	// Keep the broken milestone pinned before the count restarts
	if output.PinMessageID != "" {
		b.pinMilestone(s, m.ChannelID, output.PinMessageID)
	}

	if output.FailRoleID != "" {
		b.applyFailRole(s, m.GuildID, m.Author.ID, output.FailRoleID)
	}
}

// sendViolationMessage posts the localized copy naming the rule that
// was broken
func (b *Bot) sendViolationMessage(s *discordgo.Session, m *discordgo.MessageCreate, outcome counting.Outcome) {
	msgOutput, err := b.messagingService.GetViolationMessage(context.Background(), &messaging.GetViolationMessageInput{
		Outcome:  outcome,
		Mention:  m.Author.Mention(),
		Language: b.config.Language,
	})
	if err != nil {
		log.Printf("Failed to build violation message: %v", err)
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, msgOutput.Message); err != nil {
		log.Printf("Failed to send violation message in channel %s: %v", m.ChannelID, err)
	}
}

// pinMilestone pins the outgoing milestone message. When the pin list
// is full Discord rejects the call; unpin everything and retry once.
func (b *Bot) pinMilestone(s *discordgo.Session, channelID, messageID string) {
	err := s.ChannelMessagePin(channelID, messageID)
	if err == nil {
		return
	}

	pins, pinsErr := s.ChannelMessagesPinned(channelID)
	if pinsErr != nil {
		log.Printf("Failed to pin milestone %s and to list pins: %v, %v", messageID, err, pinsErr)
		return
	}

	for _, pinned := range pins {
		if err := s.ChannelMessageUnpin(channelID, pinned.ID); err != nil {
			log.Printf("Failed to unpin message %s: %v", pinned.ID, err)
		}
	}

	if err := s.ChannelMessagePin(channelID, messageID); err != nil {
		log.Printf("Failed to pin milestone %s after clearing pins: %v", messageID, err)
	}
}

// applyFailRole attaches the penalty role and schedules its removal.
// The timer lives only in this process; a restart loses it.
func (b *Bot) applyFailRole(s *discordgo.Session, guildID, userID, roleID string) {
	if err := s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		log.Printf("Failed to add fail role %s to user %s: %v", roleID, userID, err)
		return
	}

	time.AfterFunc(b.config.FailRoleCooldown, func() {
		if err := s.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
			log.Printf("Failed to remove fail role %s from user %s: %v", roleID, userID, err)
		}
	})
}
