package counting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OnekiDevs/oneki/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	countingKeyPrefix = "counting:"
	tallyKeyPrefix    = "counting_users:"
	countingIndexKey  = "countings_by_current"

	tallyFieldCorrect   = "correct"
	tallyFieldIncorrect = "incorrect"
)

// ErrCountingNotFound is returned when a guild has no counting document
var ErrCountingNotFound = errors.New("counting not found")

// Config holds configuration for the Redis counting repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed counting repository
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

// SaveCounting persists a guild's counting document to Redis.
//
// Per-user tallies are not part of the stored document; they live in a
// per-guild hash so IncrementUserTally can use HINCRBY without racing
// document rewrites.
func (r *redisRepository) SaveCounting(ctx context.Context, input *SaveCountingInput) error {
	if input == nil || input.Counting == nil {
		return errors.New("input and counting cannot be nil")
	}

	c := input.Counting
	if c.GuildID == "" {
		return errors.New("guild ID cannot be empty")
	}

	// Marshal the document without the tallies
	doc := *c
	doc.Users = nil
	docJSON, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal counting: %w", err)
	}

	// Create a Redis transaction
	pipe := r.client.Pipeline()

	countingKey := fmt.Sprintf("%s%s", countingKeyPrefix, c.GuildID)
	pipe.Set(ctx, countingKey, docJSON, 0)

	// Keep the leaderboard index in step with the current number
	pipe.ZAdd(ctx, countingIndexKey, redis.Z{
		Score:  float64(c.CurrentNum()),
		Member: c.GuildID,
	})

	// Execute the transaction
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save counting: %w", err)
	}

	return nil
}

// GetCounting retrieves a guild's counting document from Redis
func (r *redisRepository) GetCounting(ctx context.Context, input *GetCountingInput) (*models.GuildCounting, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	countingKey := fmt.Sprintf("%s%s", countingKeyPrefix, input.GuildID)
	docJSON, err := r.client.Get(ctx, countingKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCountingNotFound
		}
		return nil, fmt.Errorf("failed to get counting: %w", err)
	}

	var counting models.GuildCounting
	if err := json.Unmarshal([]byte(docJSON), &counting); err != nil {
		return nil, fmt.Errorf("failed to unmarshal counting: %w", err)
	}
	counting.GuildID = input.GuildID

	users, err := r.getUserTallies(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}
	counting.Users = users

	return &counting, nil
}

// ListCountings retrieves counting documents ordered by current number,
// highest first
func (r *redisRepository) ListCountings(ctx context.Context, input *ListCountingsInput) (*ListCountingsOutput, error) {
	if input == nil {
		input = &ListCountingsInput{}
	}

	stop := int64(-1)
	if input.Limit > 0 {
		stop = int64(input.Offset + input.Limit - 1)
	}

	guildIDs, err := r.client.ZRevRange(ctx, countingIndexKey, int64(input.Offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list countings: %w", err)
	}

	countings := make([]*models.GuildCounting, 0, len(guildIDs))
	for _, guildID := range guildIDs {
		counting, err := r.GetCounting(ctx, &GetCountingInput{GuildID: guildID})
		if err != nil {
			if errors.Is(err, ErrCountingNotFound) {
				// Document deleted between reading the index and the fetch
				continue
			}
			return nil, err
		}
		countings = append(countings, counting)
	}

	return &ListCountingsOutput{
		Countings: countings,
	}, nil
}

// DeleteCounting removes a guild's counting document from Redis
func (r *redisRepository) DeleteCounting(ctx context.Context, input *DeleteCountingInput) error {
	if input == nil || input.GuildID == "" {
		return errors.New("input and guild ID cannot be empty")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf("%s%s", countingKeyPrefix, input.GuildID))
	pipe.Del(ctx, fmt.Sprintf("%s%s", tallyKeyPrefix, input.GuildID))
	pipe.ZRem(ctx, countingIndexKey, input.GuildID)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete counting: %w", err)
	}

	return nil
}

// ClearCurrentNumber removes the current_number field from a guild's
// persisted document and resets its index score
func (r *redisRepository) ClearCurrentNumber(ctx context.Context, input *ClearCurrentNumberInput) error {
	if input == nil || input.GuildID == "" {
		return errors.New("input and guild ID cannot be empty")
	}

	counting, err := r.GetCounting(ctx, &GetCountingInput{GuildID: input.GuildID})
	if err != nil {
		return err
	}

	counting.CurrentNumber = nil
	return r.SaveCounting(ctx, &SaveCountingInput{Counting: counting})
}

// IncrementUserTally atomically bumps a member's per-guild counter
func (r *redisRepository) IncrementUserTally(ctx context.Context, input *IncrementUserTallyInput) error {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return errors.New("input, guild ID and user ID cannot be empty")
	}

	field := tallyFieldIncorrect
	if input.Correct {
		field = tallyFieldCorrect
	}

	tallyKey := fmt.Sprintf("%s%s", tallyKeyPrefix, input.GuildID)
	err := r.client.HIncrBy(ctx, tallyKey, tallyField(input.UserID, field), 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment user tally: %w", err)
	}

	return nil
}

// tallyField builds the hash field name for one member's counter
func tallyField(userID, field string) string {
	return fmt.Sprintf("%s:%s", userID, field)
}

// getUserTallies reassembles the per-guild users map from its hash
func (r *redisRepository) getUserTallies(ctx context.Context, guildID string) (map[string]*models.UserTally, error) {
	tallyKey := fmt.Sprintf("%s%s", tallyKeyPrefix, guildID)
	fields, err := r.client.HGetAll(ctx, tallyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user tallies: %w", err)
	}

	if len(fields) == 0 {
		return nil, nil
	}

	users := make(map[string]*models.UserTally)
	for field, raw := range fields {
		userID, counter, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}

		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tally %s: %w", field, err)
		}

		tally, ok := users[userID]
		if !ok {
			tally = &models.UserTally{}
			users[userID] = tally
		}

		switch counter {
		case tallyFieldCorrect:
			tally.Correct = value
		case tallyFieldIncorrect:
			tally.Incorrect = value
		}
	}

	return users, nil
}
