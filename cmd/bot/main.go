package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OnekiDevs/oneki/internal/common/clock"
	"github.com/OnekiDevs/oneki/internal/handlers/discord"
	countingRepo "github.com/OnekiDevs/oneki/internal/repositories/counting"
	userStatsRepo "github.com/OnekiDevs/oneki/internal/repositories/userstats"
	countingService "github.com/OnekiDevs/oneki/internal/services/counting"
	messagingService "github.com/OnekiDevs/oneki/internal/services/messaging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Initialize repositories
	countRepo, err := countingRepo.NewRedis(&countingRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create counting repository: %v", err)
	}

	statsRepo, err := userStatsRepo.NewRedis(&userStatsRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create user stats repository: %v", err)
	}

	// Initialize the counting engine
	countingSvc, err := countingService.NewService(&countingService.Config{
		CountingRepo:  countRepo,
		UserStatsRepo: statsRepo,
		Clock:         &clock.DefaultClock{},
	})
	if err != nil {
		log.Fatalf("Failed to create counting service: %v", err)
	}

	// Initialize the messaging service
	language := messagingService.ParseLanguage(getEnv("ONEKI_LANG", "es"))
	messagingSvc, err := messagingService.NewService(&messagingService.Config{
		DefaultLanguage: language,
	})
	if err != nil {
		log.Fatalf("Failed to create messaging service: %v", err)
	}

	// Get Discord token from environment
	discordToken := getEnv("DISCORD_TOKEN", "")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN environment variable is required")
	}

	// Get application ID for the bot
	applicationID := getEnv("APPLICATION_ID", "")

	// Get optional guild ID for development
	guildID := getEnv("GUILD_ID", "")

	// How long the penalty role stays applied
	failRoleCooldown, err := time.ParseDuration(getEnv("FAIL_ROLE_COOLDOWN", "12h"))
	if err != nil {
		log.Fatalf("Invalid FAIL_ROLE_COOLDOWN: %v", err)
	}

	// Initialize Discord bot
	bot, err := discord.New(&discord.Config{
		Token:            discordToken,
		ApplicationID:    applicationID,
		GuildID:          guildID,
		Language:         language,
		FailRoleCooldown: failRoleCooldown,
		CountingService:  countingSvc,
		MessagingService: messagingSvc,
	})
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	// Start the bot
	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start Discord bot: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown the bot
	if err := bot.Stop(); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("Bot has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
