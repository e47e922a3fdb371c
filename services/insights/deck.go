package insights

import "aroti/models"

var tarotDeck = []models.TarotCard{
	{
		ID: "0", Name: "The Fool", ImageName: "tarot-fool",
		Keywords:       []string{"new beginnings", "adventure", "innocence"},
		Interpretation: "A new journey awaits you",
		Guidance:       []string{"Trust your instincts", "Embrace the unknown"},
	},
	{
		ID: "1", Name: "The Magician", ImageName: "tarot-magician",
		Keywords:       []string{"willpower", "skill", "manifestation"},
		Interpretation: "You already hold the tools you need",
		Guidance:       []string{"Act on one clear intention", "Use what is in front of you"},
	},
	{
		ID: "2", Name: "The High Priestess", ImageName: "tarot-high-priestess",
		Keywords:       []string{"intuition", "mystery", "inner voice"},
		Interpretation: "The answer is quieter than the question",
		Guidance:       []string{"Listen before you speak", "Keep a dream journal tonight"},
	},
	{
		ID: "3", Name: "The Empress", ImageName: "tarot-empress",
		Keywords:       []string{"abundance", "nurture", "creativity"},
		Interpretation: "Something you tend to now will grow",
		Guidance:       []string{"Care for your body", "Make something with your hands"},
	},
	{
		ID: "17", Name: "The Star", ImageName: "tarot-star",
		Keywords:       []string{"hope", "renewal", "serenity"},
		Interpretation: "Healing follows a hard season",
		Guidance:       []string{"Rest without guilt", "Share your hope with someone"},
	},
	{
		ID: "19", Name: "The Sun", ImageName: "tarot-sun",
		Keywords:       []string{"joy", "success", "vitality"},
		Interpretation: "A bright, open day for being seen",
		Guidance:       []string{"Say yes to the invitation", "Spend time outdoors"},
	},
}

var rituals = []models.Ritual{
	{
		ID: "1", Title: "Morning Meditation", Type: "meditation", Duration: "10 minutes",
		Description: "Start your day with a 10-minute meditation",
		Intention:   "Set positive intentions for the day",
		Steps:       []string{"Find a quiet space", "Sit comfortably", "Focus on your breath"},
		Affirmation: "I am open to the wisdom of the universe",
		Benefits:    []string{"Clarity", "Peace", "Focus"},
	},
	{
		ID: "2", Title: "Gratitude Journaling", Type: "journaling", Duration: "5 minutes",
		Description: "Write down three things you are grateful for",
		Intention:   "Notice what is already good",
		Steps:       []string{"Open your journal", "Write three gratitudes", "Read them aloud"},
		Affirmation: "My life is full of quiet gifts",
		Benefits:    []string{"Perspective", "Contentment"},
	},
	{
		ID: "3", Title: "Evening Candle Reflection", Type: "reflection", Duration: "15 minutes",
		Description: "Light a candle and review the day without judgment",
		Intention:   "Release what the day left behind",
		Steps:       []string{"Light a candle", "Recall three moments", "Blow out the candle and let go"},
		Affirmation: "I release what no longer serves me",
		Benefits:    []string{"Calm", "Better sleep"},
	},
}

var horoscopes = []string{
	"Today brings opportunities for growth and reflection. Trust your intuition and be open to new experiences.",
	"A conversation you have been avoiding turns out lighter than expected. Speak plainly.",
	"Your energy is best spent finishing rather than starting. Close one loop before noon.",
	"Someone close needs your patience more than your advice today.",
	"Small rituals anchor a busy day. Protect an hour that is only yours.",
}

var affirmations = []string{
	"I trust the journey and embrace each moment with gratitude",
	"I am allowed to move at my own pace",
	"I welcome clarity and let go of confusion",
	"My intuition is a reliable guide",
}

var numerologyPreviews = map[int]string{
	1: "A day for beginnings and taking the lead",
	2: "Partnership and patience carry the day",
	3: "Expression and play open doors",
	4: "Steady work builds something lasting",
	5: "Change arrives; stay flexible",
	6: "Home and care ask for your attention",
	7: "A day of introspection and spiritual growth",
	8: "Ambition and practical decisions pay off",
	9: "Completion and letting go make room for more",
}
