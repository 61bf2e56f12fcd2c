//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sparkfish/internal/ratelimit/store"
	"sparkfish/pkg/testutil/containers"
)

type RedisCounterSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisCounterSuite(t *testing.T) {
	suite.Run(t, new(RedisCounterSuite))
}

func (s *RedisCounterSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisCounterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCounterSuite) TestLimitWithinWindow() {
	for i := range 3 {
		res, err := s.store.Allow(s.ctx, "contact:a", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed, "hit %d", i+1)
	}

	res, err := s.store.Allow(s.ctx, "contact:a", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)
	s.LessOrEqual(res.RetryAfter, 60)
}

func (s *RedisCounterSuite) TestFirstHitSetsExpiry() {
	_, err := s.store.Allow(s.ctx, "contact:b", 3, time.Minute)
	s.Require().NoError(err)

	ttl, err := s.redis.Client.PTTL(s.ctx, "rl:contact:b").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisCounterSuite) TestWindowExpires() {
	res, err := s.store.Allow(s.ctx, "contact:c", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.Allow(s.ctx, "contact:c", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(res.Allowed)

	s.Eventually(func() bool {
		res, err := s.store.Allow(s.ctx, "contact:c", 1, 200*time.Millisecond)
		return err == nil && res.Allowed
	}, 3*time.Second, 100*time.Millisecond)
}

func (s *RedisCounterSuite) TestReset() {
	_, err := s.store.Allow(s.ctx, "contact:d", 1, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, "contact:d"))

	res, err := s.store.Allow(s.ctx, "contact:d", 1, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
