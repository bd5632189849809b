package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"pricepipe/models"
)

type CacheTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache *RecommendationCache
	ctx   context.Context
	day   time.Time
}

func (s *CacheTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.cache = NewRecommendationCacheFromClient(client, time.Hour)
	s.ctx = context.Background()
	s.day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (s *CacheTestSuite) TearDownTest() {
	_ = s.cache.Close()
	s.mr.Close()
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) TestMiss() {
	_, err := s.cache.Get(s.ctx, s.day)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestSetGet() {
	recs := []models.RecommendationView{
		{ProductMasterID: 7, ProductName: "Rinso 800g", RecommendedPrice: 1000, RecommendationDate: models.Date{Time: s.day}},
	}
	s.Require().NoError(s.cache.Set(s.ctx, s.day, recs))
	s.True(s.mr.Exists("recommendations:2025-06-01"))

	got, err := s.cache.Get(s.ctx, s.day)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Rinso 800g", got[0].ProductName)
	s.Equal(int64(1000), got[0].RecommendedPrice)
	s.True(got[0].RecommendationDate.Equal(s.day))
}

func (s *CacheTestSuite) TestSetNilStoresEmptyList() {
	s.Require().NoError(s.cache.Set(s.ctx, s.day, nil))

	got, err := s.cache.Get(s.ctx, s.day)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *CacheTestSuite) TestExpires() {
	s.Require().NoError(s.cache.Set(s.ctx, s.day, []models.RecommendationView{}))

	s.mr.FastForward(2 * time.Hour)

	_, err := s.cache.Get(s.ctx, s.day)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestInvalidate() {
	s.Require().NoError(s.cache.Set(s.ctx, s.day, []models.RecommendationView{}))
	s.Require().NoError(s.cache.Invalidate(s.ctx, s.day))

	_, err := s.cache.Get(s.ctx, s.day)
	s.ErrorIs(err, ErrCacheMiss)

	other := s.day.AddDate(0, 0, 1)
	s.NoError(s.cache.Invalidate(s.ctx, other))
}

func (s *CacheTestSuite) TestCorruptPayload() {
	s.Require().NoError(s.mr.Set("recommendations:2025-06-01", "{not json"))

	_, err := s.cache.Get(s.ctx, s.day)
	s.Error(err)
	s.NotErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestFillKeepsNewerView() {
	fresh := []models.RecommendationView{{ProductMasterID: 7, ProductName: "Rinso 800g", RecommendedPrice: 1000}}
	stale := []models.RecommendationView{{ProductMasterID: 7, ProductName: "Rinso 800g", RecommendedPrice: 900}}
	s.Require().NoError(s.cache.Set(s.ctx, s.day, fresh))

	wrote, err := s.cache.Fill(s.ctx, s.day, stale)
	s.Require().NoError(err)
	s.False(wrote)

	got, err := s.cache.Get(s.ctx, s.day)
	s.Require().NoError(err)
	s.Equal(int64(1000), got[0].RecommendedPrice)
}

func (s *CacheTestSuite) TestFillWritesWhenAbsent() {
	wrote, err := s.cache.Fill(s.ctx, s.day, nil)
	s.Require().NoError(err)
	s.True(wrote)

	got, err := s.cache.Get(s.ctx, s.day)
	s.Require().NoError(err)
	s.Empty(got)
	s.True(s.mr.TTL("recommendations:2025-06-01") > 0)
}

func (s *CacheTestSuite) TestInvalidateAll() {
	s.Require().NoError(s.cache.Set(s.ctx, s.day, []models.RecommendationView{}))
	s.Require().NoError(s.cache.Set(s.ctx, s.day.AddDate(0, 0, -1), []models.RecommendationView{}))
	s.Require().NoError(s.mr.Set("session:abc", "keep"))

	n, err := s.cache.InvalidateAll(s.ctx)

	s.Require().NoError(err)
	s.Equal(int64(2), n)
	s.False(s.mr.Exists("recommendations:2025-06-01"))
	s.False(s.mr.Exists("recommendations:2025-05-31"))
	s.True(s.mr.Exists("session:abc"))
}

func (s *CacheTestSuite) TestInvalidateAllEmpty() {
	n, err := s.cache.InvalidateAll(s.ctx)

	s.NoError(err)
	s.Zero(n)
}
