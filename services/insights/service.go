// Package insights builds the daily tarot, horoscope, numerology and ritual card shared by all users.
package insights

import (
	"context"
	"errors"
	"time"

	"aroti/metrics"
	"aroti/models"
	"aroti/services/cache"

	"go.uber.org/zap"
)

type Service struct {
	cache    *cache.JSONCache
	ttl      time.Duration
	location *time.Location
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the service. Days roll over at midnight in location.
func NewService(c *cache.JSONCache, ttl time.Duration, location *time.Location, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{cache: c, ttl: ttl, location: location, metrics: m, logger: logger, now: time.Now}
}

// Today returns the insight of the current day. The cache only saves work: a cache fault
// still yields the same insight.
func (s *Service) Today(ctx context.Context) (*models.DailyInsight, error) {
	day := s.now().In(s.location)
	key := cache.DailyInsightsKey(day.Format("2006-01-02"))

	var out models.DailyInsight
	err := s.cache.GetJSON(ctx, key, &out)
	switch {
	case err == nil:
		s.metrics.CacheLookup("insights", "hit")
		return &out, nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheLookup("insights", "miss")
	default:
		s.metrics.CacheLookup("insights", "error")
		s.logger.Warn("Cache read failed, building insight", zap.String("key", key), zap.Error(err))
	}

	insight := ForDay(day)
	if err := s.cache.SetJSON(ctx, key, insight, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return insight, nil
}

// ForDay picks the insight of day's calendar date. The same date always yields the same insight.
func ForDay(day time.Time) *models.DailyInsight {
	n := day.YearDay() + day.Year()
	card := tarotDeck[n%len(tarotDeck)]
	number := dateNumber(day)
	return &models.DailyInsight{
		TarotCard:   &card,
		Horoscope:   horoscopes[n%len(horoscopes)],
		Numerology:  models.NumerologyInsight{Number: number, Preview: numerologyPreviews[number]},
		Ritual:      rituals[n%len(rituals)],
		Affirmation: affirmations[n%len(affirmations)],
		Date:        day.Format("2006-01-02"),
	}
}

// dateNumber reduces the digits of the date to a single digit from 1 to 9.
func dateNumber(day time.Time) int {
	sum := digitSum(day.Year()) + digitSum(int(day.Month())) + digitSum(day.Day())
	for sum > 9 {
		sum = digitSum(sum)
	}
	return sum
}

func digitSum(n int) int {
	sum := 0
	for ; n > 0; n /= 10 {
		sum += n % 10
	}
	return sum
}
