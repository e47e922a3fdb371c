package models

// TarotCard is the card of the day.
type TarotCard struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Keywords       []string `json:"keywords"`
	Interpretation string   `json:"interpretation,omitempty"`
	Guidance       []string `json:"guidance,omitempty"`
	ImageName      string   `json:"imageName,omitempty"`
}

type Ritual struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Type        string   `json:"type"`
	Intention   string   `json:"intention,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Affirmation string   `json:"affirmation,omitempty"`
	Benefits    []string `json:"benefits,omitempty"`
}

type NumerologyInsight struct {
	Number  int    `json:"number"`
	Preview string `json:"preview"`
}

// DailyInsight is the same for every user on a given calendar day.
type DailyInsight struct {
	TarotCard   *TarotCard        `json:"tarotCard,omitempty"`
	Horoscope   string            `json:"horoscope"`
	Numerology  NumerologyInsight `json:"numerology"`
	Ritual      Ritual            `json:"ritual"`
	Affirmation string            `json:"affirmation"`
	Date        string            `json:"date"` // YYYY-MM-DD
}
