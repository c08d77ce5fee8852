package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/stream"
)

// bridgeCommand is what the browser sends over the bridged socket. The shape
// matches the upstream generation protocol.
type bridgeCommand struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	NumQuestions int    `json:"num_questions"`
	Tone         string `json:"tone"`
	FAQID        string `json:"faq_id"`
}

// StreamBridgeHandler upgrades the browser connection and bridges it to one
// upstream generation stream authenticated with the session's token. The
// browser never sees the token.
func (s *Server) StreamBridgeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		browser, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer browser.Close() //nolint:errcheck

		var writeMu sync.Mutex
		writeBrowser := func(v any) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			return browser.WriteJSON(v)
		}

		upstream, err := stream.Dial(r.Context(), s.config.GetBackendWSURL(), entry.session, stream.WithLogger(s.logger))
		if err != nil {
			_ = writeBrowser(bridgeEvent(stream.Event{Kind: stream.EventFailed, Err: err}))
			return
		}
		defer upstream.Close() //nolint:errcheck

		// Browser commands drive the upstream client. A dead browser read
		// tears the upstream down, which ends the event loop below.
		go func() {
			defer upstream.Close() //nolint:errcheck
			for {
				var cmd bridgeCommand
				if err := browser.ReadJSON(&cmd); err != nil {
					return
				}

				switch cmd.Type {
				case "generate":
					_, err := upstream.Generate(r.Context(), stream.GenerateRequest{
						Text:         cmd.Text,
						NumQuestions: cmd.NumQuestions,
						Tone:         cmd.Tone,
						FAQID:        cmd.FAQID,
					})
					if err != nil {
						_ = writeBrowser(bridgeEvent(stream.Event{Kind: stream.EventFailed, Err: err}))
					}
				case "stop":
					_ = upstream.Stop(r.Context())
				default:
					_ = writeBrowser(map[string]string{
						"type":    "error",
						"code":    apperrors.CodeUnknownError,
						"message": "unknown command type " + cmd.Type,
					})
				}
			}
		}()

		for ev := range upstream.Events() {
			if err := writeBrowser(bridgeEvent(ev)); err != nil {
				return
			}
			if ev.Kind == stream.EventFailed && apperrors.Is(ev.Err, apperrors.ErrSessionExpired) {
				// The upstream cannot recover without a fresh sign-in.
				_ = browser.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"), closeDeadline())
				return
			}
		}
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

// bridgeEvent flattens a stream event into the browser wire shape.
func bridgeEvent(ev stream.Event) map[string]any {
	switch ev.Kind {
	case stream.EventQA:
		return map[string]any{
			"type":       "faq",
			"generation": ev.Generation,
			"id":         ev.QA.ID,
			"question":   ev.QA.Question,
			"answer":     ev.QA.Answer,
		}
	case stream.EventCompleted:
		msg := map[string]any{
			"type":           "status",
			"status":         "complete",
			"generation":     ev.Generation,
			"generated_faqs": ev.Pairs,
		}
		if ev.FAQ != nil {
			msg["faq"] = ev.FAQ
		}
		return msg
	case stream.EventStopped:
		return map[string]any{
			"type":           "status",
			"status":         "stopped",
			"generation":     ev.Generation,
			"generated_faqs": ev.Pairs,
		}
	case stream.EventFailed:
		return map[string]any{
			"type":       "error",
			"generation": ev.Generation,
			"code":       apperrors.CodeFor(ev.Err),
			"message":    ev.Err.Error(),
		}
	default:
		return map[string]any{
			"type":  "conn_state",
			"state": ev.State.String(),
		}
	}
}
