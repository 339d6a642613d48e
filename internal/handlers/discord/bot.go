package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/OnekiDevs/oneki/internal/common/uuid"
	"github.com/OnekiDevs/oneki/internal/services/counting"
	"github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/bwmarrin/discordgo"
)

// Bot represents the Discord bot instance
type Bot struct {
	session    *discordgo.Session
	commands   map[string]CommandHandler
	commandIDs map[string]string // Maps command name to command ID

	countingService  counting.Service
	messagingService messaging.Service
	uuid             uuid.UUID
	config           *Config

	// Component sessions: paginated views and pending confirmations,
	// keyed by the session ID embedded in the component custom IDs
	mu       sync.Mutex
	views    map[string]*globalStatsView
	confirms map[string]*pendingConfirm
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// Application ID for the bot
	ApplicationID string

	// Optional guild ID for development (server-specific commands)
	GuildID string

	// Language for user-facing copy
	Language messaging.Language

	// FailRoleCooldown is how long a penalty role stays on a member
	FailRoleCooldown time.Duration

	// Services
	CountingService  counting.Service
	MessagingService messaging.Service

	// UUID generator for component session IDs
	UUID uuid.UUID
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}

	if cfg.CountingService == nil {
		return nil, errors.New("counting service cannot be nil")
	}

	if cfg.MessagingService == nil {
		return nil, errors.New("messaging service cannot be nil")
	}

	if cfg.UUID == nil {
		cfg.UUID = uuid.New()
	}

	if cfg.FailRoleCooldown == 0 {
		cfg.FailRoleCooldown = 12 * time.Hour
	}

	// Create a new Discord session
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// The counting game reads every message in the bound channels
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	// Dispatch events one at a time so counts are validated in the
	// order the gateway delivers them
	session.SyncEvents = true

	bot := &Bot{
		session:          session,
		commands:         make(map[string]CommandHandler),
		commandIDs:       make(map[string]string),
		countingService:  cfg.CountingService,
		messagingService: cfg.MessagingService,
		uuid:             cfg.UUID,
		config:           cfg,
		views:            make(map[string]*globalStatsView),
		confirms:         make(map[string]*pendingConfirm),
	}

	// Register the event handlers
	session.AddHandler(bot.handleInteraction)
	session.AddHandler(bot.handleMessageCreate)

	return bot, nil
}

// Start initializes the Discord connection, loads the persisted
// counting state and registers commands
func (b *Bot) Start() error {
	// Open the websocket connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Load every guild's game, skipping guilds the bot lost access to
	loadOutput, err := b.countingService.Load(context.Background(), &counting.LoadInput{
		GuildFilter: b.canAccessGuild,
	})
	if err != nil {
		return fmt.Errorf("failed to load counting state: %w", err)
	}
	log.Printf("Loaded counting state for %d guild(s), skipped %d", loadOutput.Loaded, loadOutput.Skipped)

	// Register the counting commands
	for _, cmd := range []CommandHandler{
		NewCountSettingsCommand(b),
		NewDisableCountingCommand(b),
		NewGlobalStatsCommand(b),
		NewServerStatsCommand(b),
		NewUserStatsCommand(b),
	} {
		if err := b.RegisterCommand(cmd); err != nil {
			return fmt.Errorf("failed to register %s command: %w", cmd.GetName(), err)
		}
	}

	log.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	// Remove all commands
	appID := b.config.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
	}

	for cmdName, cmdID := range b.commandIDs {
		if err := b.session.ApplicationCommandDelete(appID, guildID, cmdID); err != nil {
			log.Printf("Failed to delete command %s (ID: %s): %v", cmdName, cmdID, err)
		}
	}

	return b.session.Close()
}

// RegisterCommand registers a command with Discord
func (b *Bot) RegisterCommand(cmd CommandHandler) error {
	appID := b.config.ApplicationID
	if appID == "" {
		// Fall back to session user ID if application ID is not provided
		appID = b.session.State.User.ID
	}

	// If guild ID is provided, register command for that specific guild
	// Otherwise, register it globally
	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
	}

	createdCmd, err := b.session.ApplicationCommandCreate(appID, guildID, cmd.GetCommand())
	if err != nil {
		return fmt.Errorf("failed to create command %s: %w", cmd.GetName(), err)
	}

	// Store the command handler and its ID
	b.commands[cmd.GetName()] = cmd
	b.commandIDs[cmd.GetName()] = createdCmd.ID
	log.Printf("Registered command: %s with ID: %s", cmd.GetName(), createdCmd.ID)

	return nil
}

// canAccessGuild reports whether the bot still sees a guild. Tried
// against the session state first, then the REST API.
func (b *Bot) canAccessGuild(guildID string) bool {
	if _, err := b.session.State.Guild(guildID); err == nil {
		return true
	}

	_, err := b.session.Guild(guildID)
	return err == nil
}

// Component custom ID prefixes
const (
	componentGlobalStats     = "global_stats"
	componentDisableCounting = "disable_counting"
)

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		// Handle slash commands
		if h, ok := b.commands[i.ApplicationCommandData().Name]; ok {
			if err := h.Handle(s, i); err != nil {
				log.Printf("Error handling command %s: %v", i.ApplicationCommandData().Name, err)
			}
		}
	case discordgo.InteractionMessageComponent:
		// Handle buttons and other components
		if err := b.handleComponentInteraction(s, i); err != nil {
			log.Printf("Error handling component interaction: %v", err)
		}
	}
}

// handleComponentInteraction routes button clicks by their custom ID:
// "<component>:<sessionID>:<action>"
func (b *Bot) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	parts := strings.SplitN(i.MessageComponentData().CustomID, ":", 3)
	if len(parts) != 3 {
		return RespondWithError(s, i, fmt.Sprintf("Unknown button: %s", i.MessageComponentData().CustomID))
	}

	component, sessionID, action := parts[0], parts[1], parts[2]

	switch component {
	case componentGlobalStats:
		return b.handleGlobalStatsButton(s, i, sessionID, action)
	case componentDisableCounting:
		return b.handleDisableCountingButton(s, i, sessionID, action)
	default:
		return RespondWithError(s, i, fmt.Sprintf("Unknown button: %s", component))
	}
}
