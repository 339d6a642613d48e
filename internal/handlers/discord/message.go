package discord

import (
	"context"
	"log"

	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/bwmarrin/discordgo"
)

// handleMessageCreate feeds every guild message into the counting
// engine and applies the consequences it decides on.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}

	output, err := b.countingService.HandleMessage(context.Background(), &counting.HandleMessageInput{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		AuthorID:    m.Author.ID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
	})
	if err != nil {
		// The in-memory decision stands; only the mirror write failed
		log.Printf("Counting persistence error in guild %s: %v", m.GuildID, err)
	}
	if output == nil || output.Outcome == counting.OutcomeIgnored {
		return
	}

	b.applyConsequences(s, m, output)
}
