package discord

import (
	"fmt"
	"math"
	"strings"

	"github.com/OnekiDevs/oneki/internal/models"
	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	colorStats  = 0x5865f2 // Discord blurple
	colorRecord = 0xfee75c // Gold for record displays
)

// barSegments is the width of the accuracy bar in an embed
const barSegments = 10

// accuracyRate returns the percentage of correct counts, truncated to
// three decimal places to match the way players quote it
func accuracyRate(correct, incorrect int) float64 {
	total := correct + incorrect
	if total == 0 {
		return 0
	}
	rate := float64(correct) * 100 / float64(total)
	return math.Floor(rate*1000) / 1000
}

// filledBar renders a fixed-width progress bar for an accuracy rate
func filledBar(correct, incorrect int) string {
	total := correct + incorrect
	filled := 0
	if total > 0 {
		filled = correct * barSegments / total
	}

	var bar strings.Builder
	bar.WriteString(strings.Repeat("█", filled))
	bar.WriteString(strings.Repeat("░", barSegments-filled))
	return bar.String()
}

// tallyLine is the one-line summary used in the stats embeds
func tallyLine(correct, incorrect int) string {
	return fmt.Sprintf("%s %g%%\n✅ %d | ❌ %d", filledBar(correct, incorrect), accuracyRate(correct, incorrect), correct, incorrect)
}

// relativeTimestamp renders a Discord relative timestamp tag
func relativeTimestamp(unix int64) string {
	return fmt.Sprintf("<t:%d:R>", unix)
}

// renderServerStats builds the embed for one guild's game state
func renderServerStats(copy *messaging.GetStatsCopyOutput, guildName string, state *models.GuildCounting) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s - %s", copy.ServerTitle, guildName),
		Color: colorRecord,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   copy.ServerCurrentField,
				Value:  fmt.Sprintf("%d", state.CurrentNum()),
				Inline: true,
			},
		},
	}

	if by := state.CurrentBy(); by != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   copy.ServerHolderField,
			Value:  fmt.Sprintf("<@%s>", by),
			Inline: true,
		})
	}

	if state.Record != nil && state.Record.Num > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: copy.ServerRecordField,
			Value: fmt.Sprintf("%d (%s %s)", state.Record.Num,
				copy.ServerRecordWhen, relativeTimestamp(state.Record.Time.Unix())),
		})
	}

	return embed
}

// renderUserStats builds the embed for one member's tallies
func renderUserStats(copy *messaging.GetStatsCopyOutput, user *discordgo.User, stats *counting.GetUserStatsOutput) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: user.Username,
		Color: colorStats,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL(""),
		},
	}

	if stats.Global == nil && stats.Guild == nil {
		embed.Description = copy.UserNoStats
		return embed
	}

	if stats.Global != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  copy.UserGlobalField,
			Value: tallyLine(stats.Global.Correct, stats.Global.Incorrect),
		})
	}

	if stats.Guild != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  copy.UserGuildField,
			Value: tallyLine(stats.Guild.Correct, stats.Guild.Incorrect),
		})
	}

	return embed
}

// renderGlobalStatsPage builds one page of the cross-guild leaderboard
func renderGlobalStatsPage(copy *messaging.GetStatsCopyOutput, page []*globalStatsEntry, pageNumber int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: copy.GlobalTitle,
		Color: colorStats,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf(copy.GlobalPageFooter, pageNumber+1),
		},
	}

	if len(page) == 0 {
		embed.Description = copy.GlobalEndOfPages
		return embed
	}

	for _, entry := range page {
		value := fmt.Sprintf("%d", entry.CurrentNum)
		if entry.CurrentBy != "" {
			value = fmt.Sprintf("%d (<@%s>)", entry.CurrentNum, entry.CurrentBy)
		}
		value += "\n" + tallyLine(entry.Correct, entry.Incorrect)

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  entry.GuildName,
			Value: value,
		})
	}

	return embed
}
