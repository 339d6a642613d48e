package userstats

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   Repository
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	// Create a Redis client connected to the miniredis server
	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	// Create the repository
	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) TestIncrementCreatesRecord() {
	// First increment seeds the record
	err := s.repo.IncrementStats(context.Background(), &IncrementStatsInput{
		UserID:  "user-1",
		Correct: true,
	})
	s.Require().NoError(err)

	stats, err := s.repo.GetStats(context.Background(), &GetStatsInput{
		UserID: "user-1",
	})
	s.Require().NoError(err)
	s.Equal(1, stats.Correct)
	s.Equal(0, stats.Incorrect)
}

func (s *RedisRepositoryTestSuite) TestIncrementAccumulates() {
	for i := 0; i < 5; i++ {
		err := s.repo.IncrementStats(context.Background(), &IncrementStatsInput{
			UserID:  "user-1",
			Correct: true,
		})
		s.Require().NoError(err)
	}

	for i := 0; i < 2; i++ {
		err := s.repo.IncrementStats(context.Background(), &IncrementStatsInput{
			UserID:  "user-1",
			Correct: false,
		})
		s.Require().NoError(err)
	}

	stats, err := s.repo.GetStats(context.Background(), &GetStatsInput{
		UserID: "user-1",
	})
	s.Require().NoError(err)
	s.Equal(5, stats.Correct)
	s.Equal(2, stats.Incorrect)
}

func (s *RedisRepositoryTestSuite) TestGetNonExistentStats() {
	_, err := s.repo.GetStats(context.Background(), &GetStatsInput{
		UserID: "nobody",
	})
	s.Require().Error(err)
	s.Equal(ErrStatsNotFound, err)
}
