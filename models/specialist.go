package models

import (
	"fmt"
	"strings"
)

// Specialist is a bookable practitioner in the catalog.
type Specialist struct {
	ID              string   `bson:"id" json:"id"`
	Name            string   `bson:"name" json:"name"`
	Specialty       string   `bson:"specialty" json:"specialty"`
	Categories      []string `bson:"categories" json:"categories"`
	Country         string   `bson:"country" json:"country"`
	CountryFlag     string   `bson:"countryFlag" json:"countryFlag"`
	Rating          float64  `bson:"rating" json:"rating"`
	ReviewCount     int      `bson:"reviewCount" json:"reviewCount"`
	SessionCount    int      `bson:"sessionCount" json:"sessionCount"`
	Price           int      `bson:"price" json:"price"` // whole units of the base currency
	Bio             string   `bson:"bio" json:"bio"`
	YearsOfPractice int      `bson:"yearsOfPractice" json:"yearsOfPractice"`
	Photo           string   `bson:"photo" json:"photo"`
	Available       bool     `bson:"available" json:"available"` // gates new bookings
	Languages       []string `bson:"languages" json:"languages"`
	AddedDate       string   `bson:"addedDate,omitempty" json:"addedDate,omitempty"`
}

// Review is a user review of a specialist.
type Review struct {
	ID           string `bson:"id" json:"id"`
	SpecialistID string `bson:"specialistId" json:"specialistId"`
	UserName     string `bson:"userName" json:"userName"`
	Rating       int    `bson:"rating" json:"rating"` // 1-5
	Comment      string `bson:"comment" json:"comment"`
	Date         string `bson:"date" json:"date"`
}

// Availability filter values accepted by the catalog listing.
const (
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

// SpecialistFilter narrows a catalog listing. Nil pointers mean "no bound".
type SpecialistFilter struct {
	Availability string
	PriceMin     *int
	PriceMax     *int
	MinRating    *float64
	Languages    []string
	Category     string
}

// CacheKey renders the filter into the catalog list cache key.
func (f SpecialistFilter) CacheKey() string {
	return fmt.Sprintf("specialists:list:%s:%s:%s:%s:%s:%s",
		f.Availability,
		intOrEmpty(f.PriceMin),
		intOrEmpty(f.PriceMax),
		floatOrEmpty(f.MinRating),
		strings.Join(f.Languages, ","),
		f.Category,
	)
}

// Matches reports whether s passes every bound of the filter.
func (f SpecialistFilter) Matches(s Specialist) bool {
	switch f.Availability {
	case AvailabilityAvailable:
		if !s.Available {
			return false
		}
	case AvailabilityUnavailable:
		if s.Available {
			return false
		}
	}
	if f.PriceMin != nil && s.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && s.Price > *f.PriceMax {
		return false
	}
	if f.MinRating != nil && s.Rating < *f.MinRating {
		return false
	}
	if len(f.Languages) > 0 && !overlaps(s.Languages, f.Languages) {
		return false
	}
	if f.Category != "" && !overlaps(s.Categories, []string{f.Category}) {
		return false
	}
	return true
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}
