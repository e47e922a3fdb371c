package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecialistFilterMatches(t *testing.T) {
	s := Specialist{ID: "1", Price: 40, Rating: 4.9, Available: true,
		Languages: []string{"Romanian", "English"}, Categories: []string{"Astrology"}}

	minPrice, maxPrice := 30, 45
	tooHigh := 41
	rating := 4.95

	tests := []struct {
		name   string
		filter SpecialistFilter
		want   bool
	}{
		{"empty", SpecialistFilter{}, true},
		{"available", SpecialistFilter{Availability: AvailabilityAvailable}, true},
		{"unavailable", SpecialistFilter{Availability: AvailabilityUnavailable}, false},
		{"price range", SpecialistFilter{PriceMin: &minPrice, PriceMax: &maxPrice}, true},
		{"below minimum price", SpecialistFilter{PriceMin: &tooHigh}, false},
		{"rating", SpecialistFilter{MinRating: &rating}, false},
		{"language overlap", SpecialistFilter{Languages: []string{"Greek", "English"}}, true},
		{"language miss", SpecialistFilter{Languages: []string{"Greek"}}, false},
		{"category", SpecialistFilter{Category: "Astrology"}, true},
		{"category miss", SpecialistFilter{Category: "Reiki"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(s))
		})
	}
}

func TestSpecialistFilterCacheKey(t *testing.T) {
	priceMin := 10
	f := SpecialistFilter{Availability: "available", PriceMin: &priceMin, Languages: []string{"English", "Greek"}}
	assert.Equal(t, "specialists:list:available:10:::English,Greek:", f.CacheKey())
	assert.Equal(t, "specialists:list::::::", SpecialistFilter{}.CacheKey())
}

func TestSessionStatusActive(t *testing.T) {
	assert.True(t, SessionPending.Active())
	assert.True(t, SessionUpcoming.Active())
	assert.False(t, SessionCompleted.Active())
	assert.False(t, SessionCancelled.Active())
	assert.Equal(t, "1|2025-09-15|14:00", SlotKey("1", "2025-09-15", "14:00"))
}
