package model

import "time"

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTAText  string `json:"cta_text"`
	CTALink  string `json:"cta_link"`
	ImageURL string `json:"image_url,omitempty"`
}

type Countdown struct {
	Title      string    `json:"title"`
	TargetDate time.Time `json:"target_date"`
	IsActive   bool      `json:"is_active"`
}

type Feature struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Order       int    `json:"order"`
}

type FAQItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

// LandingPage is the aggregate rendered by the public home page.
type LandingPage struct {
	Locale    string     `json:"locale"`
	Hero      Hero       `json:"hero"`
	Countdown *Countdown `json:"countdown,omitempty"`
	Features  []Feature  `json:"features"`
	Courses   []Course   `json:"courses"`
	FAQ       []FAQItem  `json:"faq"`
	FetchedAt time.Time  `json:"fetched_at"`
}
