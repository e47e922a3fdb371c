package database

import "aroti/models"

// SeedSpecialists is the starter catalog loaded when SEED_CATALOG is set or the memory driver is used.
func SeedSpecialists() []models.Specialist {
	return []models.Specialist{
		{
			ID: "1", Name: "Raluca", Specialty: "Astrologer",
			Categories: []string{"Astrology", "Moon Cycles", "Emotional Healing"},
			Country:    "Romania", CountryFlag: "🇷🇴", Rating: 4.9, ReviewCount: 128, SessionCount: 150, Price: 40,
			Bio:             "15 years of holistic practice focusing on emotional balance and lunar guidance. I help people reconnect with their inner wisdom through astrological insights.",
			YearsOfPractice: 15, Photo: "specialist-1", Available: true,
			Languages: []string{"Romanian", "English"}, AddedDate: "2024-01-15",
		},
		{
			ID: "2", Name: "Marcus", Specialty: "Holistic Therapist",
			Categories: []string{"Therapy", "Mindfulness", "Life Coaching"},
			Country:    "USA", CountryFlag: "🇺🇸", Rating: 4.8, ReviewCount: 96, SessionCount: 120, Price: 55,
			Bio:             "Compassionate therapist specializing in mindfulness-based approaches to emotional wellness and personal transformation.",
			YearsOfPractice: 12, Photo: "specialist-2", Available: true,
			Languages: []string{"English", "Spanish"}, AddedDate: "2024-03-20",
		},
		{
			ID: "3", Name: "Sophia", Specialty: "Numerologist",
			Categories: []string{"Numerology", "Life Path", "Career Guidance"},
			Country:    "Greece", CountryFlag: "🇬🇷", Rating: 4.9, ReviewCount: 142, SessionCount: 200, Price: 35,
			Bio:             "Expert in numerology with a focus on life path discovery and career alignment through numbers and cosmic patterns.",
			YearsOfPractice: 18, Photo: "specialist-3", Available: true,
			Languages: []string{"Greek", "English"}, AddedDate: "2023-11-10",
		},
		{
			ID: "4", Name: "Kai", Specialty: "Reiki Master",
			Categories: []string{"Reiki", "Energy Healing", "Chakra Balance"},
			Country:    "Japan", CountryFlag: "🇯🇵", Rating: 5.0, ReviewCount: 87, SessionCount: 95, Price: 50,
			Bio:             "Traditional Reiki master offering energy healing sessions to restore balance, clarity, and inner peace.",
			YearsOfPractice: 10, Photo: "specialist-4", Available: true,
			Languages: []string{"Japanese", "English"}, AddedDate: "2024-06-05",
		},
	}
}

// SeedReviews pairs with SeedSpecialists.
func SeedReviews() []models.Review {
	return []models.Review{
		{ID: "1", SpecialistID: "1", UserName: "Emma", Rating: 5, Comment: "Raluca helped me understand my moon cycle patterns. Truly transformative session.", Date: "2025-09-15"},
		{ID: "2", SpecialistID: "1", UserName: "Oliver", Rating: 5, Comment: "Her insights were incredibly accurate and deeply resonant. Highly recommend!", Date: "2025-09-10"},
	}
}
