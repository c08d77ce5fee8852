// Package flowstate tracks in-flight OAuth sign-in attempts between the
// redirect to Google and the callback, keyed by the state parameter.
package flowstate

import "time"

// FlowState is one pending sign-in attempt.
type FlowState struct {
	Nonce     string
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, flow *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
}
