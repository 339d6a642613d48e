package userstats

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/OnekiDevs/oneki/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefix for Redis
	statsKeyPrefix = "user_countings:"

	fieldCorrect   = "correct"
	fieldIncorrect = "incorrect"
)

// ErrStatsNotFound is returned when a user has never counted anywhere
var ErrStatsNotFound = errors.New("user stats not found")

// Config holds configuration for the Redis user stats repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed user stats repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// IncrementStats atomically bumps a user's global counter. HINCRBY
// seeds the hash on first use, so there is no separate initializing
// write.
func (r *redisRepository) IncrementStats(ctx context.Context, input *IncrementStatsInput) error {
	if input == nil || input.UserID == "" {
		return errors.New("input and user ID cannot be empty")
	}

	field := fieldIncorrect
	if input.Correct {
		field = fieldCorrect
	}

	statsKey := fmt.Sprintf("%s%s", statsKeyPrefix, input.UserID)
	err := r.client.HIncrBy(ctx, statsKey, field, 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment user stats: %w", err)
	}

	return nil
}

// GetStats retrieves a user's global counting stats from Redis
func (r *redisRepository) GetStats(ctx context.Context, input *GetStatsInput) (*models.UserStats, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	statsKey := fmt.Sprintf("%s%s", statsKeyPrefix, input.UserID)
	fields, err := r.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrStatsNotFound
	}

	stats := &models.UserStats{}
	if raw, ok := fields[fieldCorrect]; ok {
		stats.Correct, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse correct counter: %w", err)
		}
	}
	if raw, ok := fields[fieldIncorrect]; ok {
		stats.Incorrect, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse incorrect counter: %w", err)
		}
	}

	return stats, nil
}
