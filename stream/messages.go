package stream

import "github.com/jrsteele09/go-smartfaq/client"

// NewFAQID targets generation at a record the backend has not stored yet.
const NewFAQID = "new"

// Wire message type tags.
const (
	msgGenerate = "generate"
	msgStop     = "stop"
	msgFAQ      = "faq"
	msgStatus   = "status"
	msgError    = "error"
)

// Terminal status values carried by status messages.
const (
	statusComplete = "complete"
	statusStopped  = "stopped"
)

// generateCommand starts question/answer generation for a piece of content.
type generateCommand struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	NumQuestions int    `json:"num_questions"`
	Tone         string `json:"tone"`
	FAQID        string `json:"faq_id"`
	Generation   uint64 `json:"generation"`
}

// stopCommand cancels the identified generation.
type stopCommand struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
}

// serverMessage is the union of every inbound message shape. The Type tag
// decides which fields are meaningful.
type serverMessage struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`

	// faq messages; the id is the pair's backend primary key
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`

	// status messages
	Status string      `json:"status"`
	FAQ    *client.FAQ `json:"faq,omitempty"`

	// error messages
	Message string `json:"message"`
}
