package stream_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
	"github.com/jrsteele09/go-smartfaq/stream"
)

type noRefresh struct{}

func (noRefresh) Refresh(context.Context, string) (session.TokenPair, error) {
	return session.TokenPair{}, fmt.Errorf("refresh not expected")
}

type streamFixture struct {
	server   *httptest.Server
	client   *stream.Client
	commands chan map[string]any
	send     chan any
	closed   chan struct{}
}

// newStreamFixture runs a scripted stream endpoint: inbound commands surface
// on f.commands, anything pushed to f.send is written to the peer.
func newStreamFixture(t *testing.T, options ...stream.Option) *streamFixture {
	t.Helper()

	f := &streamFixture{
		commands: make(chan map[string]any, 16),
		send:     make(chan any, 16),
		closed:   make(chan struct{}),
	}

	upgrader := websocket.Upgrader{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("token"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var cmd map[string]any
				if err := conn.ReadJSON(&cmd); err != nil {
					return
				}
				f.commands <- cmd
			}
		}()

		for {
			select {
			case msg := <-f.send:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-done:
				return
			case <-f.closed:
				_ = conn.Close()
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)

	sess := session.New(session.TokenPair{
		AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken: "refresh",
	}, noRefresh{})

	c, err := stream.Dial(context.Background(), f.server.URL, sess, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f.client = c
	return f
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": expiry.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

// nextEvent waits for the next non-connection-state event.
func nextEvent(t *testing.T, c *stream.Client) stream.Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "event channel closed")
			if ev.Kind == stream.EventConnState {
				continue
			}
			return ev
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func nextCommand(t *testing.T, f *streamFixture) map[string]any {
	t.Helper()

	select {
	case cmd := <-f.commands:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
		return nil
	}
}

func TestGenerateStreamsPairsThenCompletes(t *testing.T) {
	f := newStreamFixture(t)

	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{
		Text:         "Our product is a widget.",
		NumQuestions: 2,
		Tone:         "professional",
	})
	require.NoError(t, err)

	cmd := nextCommand(t, f)
	require.Equal(t, "generate", cmd["type"])
	require.Equal(t, "Our product is a widget.", cmd["text"])
	require.Equal(t, float64(2), cmd["num_questions"])
	require.Equal(t, "professional", cmd["tone"])
	require.Equal(t, "new", cmd["faq_id"])
	require.Equal(t, float64(seq), cmd["generation"])

	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 1, "question": "What is it?", "answer": "A widget."}
	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 2, "question": "How much?", "answer": "Ten."}
	f.send <- map[string]any{
		"type": "status", "generation": seq, "status": "complete",
		"faq": map[string]any{"id": 9, "title": "Widget FAQ"},
	}

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)
	require.Equal(t, "What is it?", ev.QA.Question)

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)
	require.Equal(t, "How much?", ev.QA.Question)

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventCompleted, ev.Kind)
	require.Equal(t, seq, ev.Generation)
	require.Len(t, ev.Pairs, 2)
	require.NotNil(t, ev.FAQ)
	require.Equal(t, int64(9), ev.FAQ.ID)
	require.Len(t, ev.FAQ.GeneratedFAQs, 2)
}

func TestGenerateWhileActiveIsRejected(t *testing.T) {
	f := newStreamFixture(t)

	_, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)

	_, err = f.client.Generate(context.Background(), stream.GenerateRequest{Text: "more content"})
	require.ErrorIs(t, err, apperrors.ErrGenerationInProgress)
}

func TestStopEndsGenerationImmediatelyAndDiscardsStaleEvents(t *testing.T) {
	f := newStreamFixture(t)

	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 1, "question": "Q1", "answer": "A1"}
	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)

	require.NoError(t, f.client.Stop(context.Background()))

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventStopped, ev.Kind)
	require.Equal(t, seq, ev.Generation)
	require.Len(t, ev.Pairs, 1)

	cmd := nextCommand(t, f)
	require.Equal(t, "stop", cmd["type"])

	// Late server traffic for the stopped generation never reaches the
	// consumer. A fresh generation's events do.
	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 99, "question": "stale", "answer": "stale"}
	f.send <- map[string]any{"type": "status", "generation": seq, "status": "stopped"}

	seq2, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "next"})
	require.NoError(t, err)
	require.Greater(t, seq2, seq)
	nextCommand(t, f)

	f.send <- map[string]any{"type": "faq", "generation": seq2, "id": 3, "question": "Q", "answer": "A"}

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)
	require.Equal(t, seq2, ev.Generation)
	require.Equal(t, int64(3), ev.QA.ID)
}

func TestDuplicatePairIDsAreDiscarded(t *testing.T) {
	f := newStreamFixture(t)

	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 7, "question": "Q1", "answer": "A1"}
	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 7, "question": "Q1", "answer": "A1"}
	f.send <- map[string]any{"type": "status", "generation": seq, "status": "complete"}

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventCompleted, ev.Kind)
	require.Len(t, ev.Pairs, 1)
}

func TestUnknownMessageTypeSurfacesAsFailure(t *testing.T) {
	f := newStreamFixture(t)

	f.send <- map[string]any{"type": "telemetry", "generation": 0}

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventFailed, ev.Kind)
	require.ErrorIs(t, ev.Err, apperrors.ErrUnknownMessage)
}

func TestGenerationErrorMessage(t *testing.T) {
	f := newStreamFixture(t)

	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	f.send <- map[string]any{"type": "error", "generation": seq, "message": "model unavailable"}

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventFailed, ev.Kind)
	require.Equal(t, seq, ev.Generation)
	require.ErrorIs(t, ev.Err, apperrors.ErrGenerationFailed)
	require.Contains(t, ev.Err.Error(), "model unavailable")

	// The failed generation released the slot.
	_, err = f.client.Generate(context.Background(), stream.GenerateRequest{Text: "again"})
	require.NoError(t, err)
}

func TestAppendModeMergesExistingPairs(t *testing.T) {
	f := newStreamFixture(t, stream.WithUpdateMode(stream.UpdateModeAppend))

	existing := []client.QuestionAnswer{{ID: 11, Question: "Old?", Answer: "Yes."}}
	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{
		Text:     "content",
		FAQID:    "42",
		Existing: existing,
	})
	require.NoError(t, err)

	cmd := nextCommand(t, f)
	require.Equal(t, "42", cmd["faq_id"])

	f.send <- map[string]any{"type": "faq", "generation": seq, "id": 12, "question": "New?", "answer": "Also yes."}
	f.send <- map[string]any{"type": "status", "generation": seq, "status": "complete"}

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventQA, ev.Kind)

	ev = nextEvent(t, f.client)
	require.Equal(t, stream.EventCompleted, ev.Kind)
	require.Len(t, ev.Pairs, 2)
	require.Equal(t, int64(11), ev.Pairs[0].ID)
	require.Equal(t, int64(12), ev.Pairs[1].ID)
}

func TestTransportLossFailsActiveGeneration(t *testing.T) {
	f := newStreamFixture(t, stream.WithAutoReconnect(false))

	_, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	close(f.closed)

	ev := nextEvent(t, f.client)
	require.Equal(t, stream.EventFailed, ev.Kind)
	require.ErrorIs(t, ev.Err, apperrors.ErrNetwork)
}

func TestStoppedIsLastEventOfItsGeneration(t *testing.T) {
	f := newStreamFixture(t)

	seq, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	for i := 1; i <= 8; i++ {
		f.send <- map[string]any{"type": "faq", "generation": seq, "id": i, "question": "Q", "answer": "A"}
	}
	require.NoError(t, f.client.Stop(context.Background()))

	// Pairs routed before the stop arrive first; the Stopped event is the
	// last of its generation.
	sawStopped := false
	deadline := time.After(2 * time.Second)
	for !sawStopped {
		select {
		case ev := <-f.client.Events():
			if ev.Kind == stream.EventConnState {
				continue
			}
			if ev.Kind == stream.EventStopped {
				require.Equal(t, seq, ev.Generation)
				sawStopped = true
				continue
			}
			require.Equal(t, stream.EventQA, ev.Kind)
		case <-deadline:
			t.Fatal("timed out waiting for the stopped event")
		}
	}

	select {
	case ev := <-f.client.Events():
		require.NotEqual(t, seq, ev.Generation, "event delivered after its generation's terminal event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopAfterCloseIsANoOp(t *testing.T) {
	f := newStreamFixture(t)

	_, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.NoError(t, err)
	nextCommand(t, f)

	require.NoError(t, f.client.Close())

	// The event channel is closed now; a late Stop must neither panic nor
	// emit anything.
	for i := 0; i < 20; i++ {
		require.NoError(t, f.client.Stop(context.Background()))
	}
}

func TestGenerateAfterCloseIsRejected(t *testing.T) {
	f := newStreamFixture(t)

	require.NoError(t, f.client.Close())

	_, err := f.client.Generate(context.Background(), stream.GenerateRequest{Text: "content"})
	require.ErrorIs(t, err, apperrors.ErrStreamClosed)
}
