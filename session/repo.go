package session

import "time"

// StoredSession is a session artifact at rest, keyed by the opaque session
// id carried in the gateway cookie (or held by the CLI session file).
type StoredSession struct {
	// Tokens (refresh is essential, access is convenience)
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`

	// Identity shown in the UI
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Pair returns the stored tokens as a TokenPair.
func (ss StoredSession) Pair() TokenPair {
	return TokenPair{AccessToken: ss.AccessToken, RefreshToken: ss.RefreshToken}
}

type Repo interface {
	Upsert(sessionID string, stored StoredSession) error
	Get(sessionID string) (StoredSession, error)
	Delete(sessionID string) error
}
