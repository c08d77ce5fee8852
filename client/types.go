package client

import "time"

// QuestionAnswer is a single generated question/answer entry within an FAQ.
// The id is the backend's primary key; zero until the backend assigns one.
type QuestionAnswer struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQ is a stored FAQ record: the source content plus the generated entries.
type FAQ struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	GeneratedFAQs []QuestionAnswer `json:"generated_faqs"`
	NumberOfFAQs  int              `json:"number_of_faqs"`
	Tone          string           `json:"tone"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// FAQPage is one page of FAQ list results.
type FAQPage struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []FAQ  `json:"results"`
}

// ListParams narrows an FAQ list request. Zero values are omitted.
type ListParams struct {
	Page     int
	PageSize int
	Search   string

	// Ordering is a backend sort expression, for example "-created_at".
	Ordering string
}

// User identifies the authenticated account.
type User struct {
	PK        int64  `json:"pk"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse is the backend's reply to any successful authentication.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// RegistrationRequest creates a new account. The backend requires the two
// passwords to match.
type RegistrationRequest struct {
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// DailyTrend is one day's FAQ count, labelled with the weekday ("Mon").
type DailyTrend struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// MonthlyTrend is one month's FAQ count, labelled with the month ("Jan").
type MonthlyTrend struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ToneCount is the number of FAQs generated with a given tone.
type ToneCount struct {
	Tone  string `json:"tone"`
	Value int    `json:"value"`
}

// Statistics aggregates the account's FAQ activity.
type Statistics struct {
	TotalFAQs          int            `json:"total_faqs"`
	TotalQuestions     int            `json:"total_questions"`
	AvgQuestionsPerFAQ float64        `json:"avg_questions_per_faq"`
	LastFAQCreated     *FAQ           `json:"last_faq_created"`
	MonthlyTrends      []MonthlyTrend `json:"monthly_trends"`
	DailyTrends        []DailyTrend   `json:"daily_trends"`
	Tones              []ToneCount    `json:"tones"`
}
