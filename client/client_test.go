package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
)

type clientFixture struct {
	server  *httptest.Server
	client  *client.Client
	session *session.Session
}

func newClientFixture(t *testing.T, handler http.Handler) *clientFixture {
	t.Helper()

	f := &clientFixture{}
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)

	f.client = client.New(f.server.URL)
	return f
}

// withSession attaches a session holding a fresh access token so
// authenticated calls skip the refresh path.
func (f *clientFixture) withSession(t *testing.T) *clientFixture {
	t.Helper()

	f.session = session.New(session.TokenPair{
		AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken: "refresh-token",
	}, f.client)
	f.client.UseSession(f.session)
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

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestLogin(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user@example.com", body["email"])
		require.Equal(t, "hunter2", body["password"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"access":  "access-token",
			"refresh": "refresh-token",
			"user":    map[string]any{"pk": 7, "email": "user@example.com"},
		})
	}))

	resp, err := f.client.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "access-token", resp.Access)
	require.Equal(t, "refresh-token", resp.Refresh)
	require.Equal(t, int64(7), resp.User.PK)
}

func TestLoginRejectedCredentials(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"non_field_errors": []string{"Unable to log in with provided credentials."},
		})
	}))

	_, err := f.client.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Equal(t, apperrors.CodeInvalidCredentials, apperrors.CodeFor(err))
}

func TestLoginAuthServiceDown(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := f.client.Login(context.Background(), "user@example.com", "hunter2")
	require.ErrorIs(t, err, apperrors.ErrAuthService)
}

func TestListFAQsSendsBearerToken(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"count":   1,
			"results": []map[string]any{backendFAQ(3, "Pricing")},
		})
	}))
	f.withSession(t)

	page, err := f.client.ListFAQs(context.Background(), client.ListParams{Page: 2})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	require.Equal(t, "Pricing", page.Results[0].Title)
	require.Len(t, page.Results[0].GeneratedFAQs, 2)
}

// backendFAQ is an FAQ record as the backend serializes it: integer primary
// keys on the record and on every generated pair.
func backendFAQ(id int64, title string) map[string]any {
	return map[string]any{
		"id":      id,
		"title":   title,
		"content": "Our product is a widget.",
		"generated_faqs": []map[string]any{
			{"id": id*100 + 1, "question": "What is it?", "answer": "A widget."},
			{"id": id*100 + 2, "question": "How much?", "answer": "Ten."},
		},
		"number_of_faqs": 2,
		"tone":           "neutral",
		"created_at":     "2026-08-12T09:30:00Z",
		"updated_at":     "2026-08-12T09:30:00Z",
	}
}

func TestGetFAQDecodesGeneratedPairs(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/5/", r.URL.Path)
		writeJSON(t, w, http.StatusOK, backendFAQ(5, "Widget FAQ"))
	}))
	f.withSession(t)

	faq, err := f.client.GetFAQ(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), faq.ID)
	require.Len(t, faq.GeneratedFAQs, 2)
	require.Equal(t, int64(501), faq.GeneratedFAQs[0].ID)
	require.Equal(t, "What is it?", faq.GeneratedFAQs[0].Question)
}

func TestListFAQsInvalidPage(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"detail": "Invalid page."})
	}))
	f.withSession(t)

	_, err := f.client.ListFAQs(context.Background(), client.ListParams{Page: 99})
	require.ErrorIs(t, err, apperrors.ErrInvalidPage)
}

func TestUpdateFAQValidationError(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"title": []string{"This field may not be blank."},
		})
	}))
	f.withSession(t)

	_, err := f.client.UpdateFAQ(context.Background(), 3, client.FAQ{})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, []string{"This field may not be blank."}, apiErr.Details["title"])
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("request should not reach the backend")
	}))

	_, err := f.client.Statistics(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestStaleTokenRefreshesBeforeRequest(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))

	var refreshCalls int
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token/refresh/":
			refreshCalls++
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "refresh-token", body["refresh"])
			writeJSON(t, w, http.StatusOK, map[string]string{"access": fresh})
		case "/faq/statistics/":
			require.Equal(t, "Bearer "+fresh, r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, map[string]any{"total_faqs": 4})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	stale := signedToken(t, time.Now().Add(-time.Minute))
	sess := session.New(session.TokenPair{AccessToken: stale, RefreshToken: "refresh-token"}, f.client)
	f.client.UseSession(sess)

	stats, err := f.client.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalFAQs)
	require.Equal(t, 1, refreshCalls)

	// Rotation without a new refresh token keeps the old one.
	require.Equal(t, "refresh-token", sess.Tokens().RefreshToken)
}

func TestFailedRefreshSurfacesSessionExpired(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token/refresh/", r.URL.Path)
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired"})
	}))

	stale := signedToken(t, time.Now().Add(-time.Minute))
	sess := session.New(session.TokenPair{AccessToken: stale, RefreshToken: "dead"}, f.client)
	f.client.UseSession(sess)

	_, err := f.client.Statistics(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Empty(t, sess.Tokens().RefreshToken)
}

func TestStatisticsDecodesBackendShape(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/statistics/", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"total_faqs":            4,
			"total_questions":       11,
			"avg_questions_per_faq": 2.8,
			"last_faq_created":      backendFAQ(9, "Latest"),
			"monthly_trends": []map[string]any{
				{"month": "Jul", "count": 1},
				{"month": "Aug", "count": 3},
			},
			"daily_trends": []map[string]any{
				{"day": "Mon", "count": 0},
				{"day": "Tue", "count": 2},
			},
			"tones": []map[string]any{
				{"tone": "neutral", "value": 3},
				{"tone": "formal", "value": 1},
			},
		})
	}))
	f.withSession(t)

	stats, err := f.client.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalFAQs)
	require.Equal(t, 11, stats.TotalQuestions)
	require.InDelta(t, 2.8, stats.AvgQuestionsPerFAQ, 0.001)

	require.NotNil(t, stats.LastFAQCreated)
	require.Equal(t, int64(9), stats.LastFAQCreated.ID)
	require.Len(t, stats.LastFAQCreated.GeneratedFAQs, 2)

	require.Equal(t, []client.MonthlyTrend{{Month: "Jul", Count: 1}, {Month: "Aug", Count: 3}}, stats.MonthlyTrends)
	require.Equal(t, []client.DailyTrend{{Day: "Mon", Count: 0}, {Day: "Tue", Count: 2}}, stats.DailyTrends)
	require.Equal(t, []client.ToneCount{{Tone: "neutral", Value: 3}, {Tone: "formal", Value: 1}}, stats.Tones)
}

func TestWithTimeoutAppliesRegardlessOfOptionOrder(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))

	api := client.New(f.server.URL,
		client.WithTimeout(50*time.Millisecond),
		client.WithHTTPClient(&http.Client{}),
	)

	_, err := api.Login(context.Background(), "user@example.com", "hunter2")
	require.ErrorIs(t, err, apperrors.ErrRequestTimeout)
}

func TestDownloadPDF(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/12/download/", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="pricing-faq.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	f.withSession(t)

	data, filename, err := f.client.DownloadPDF(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, "pricing-faq.pdf", filename)
	require.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestUploadPDF(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/upload-pdf/", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck
		require.Equal(t, "guide.pdf", header.Filename)

		writeJSON(t, w, http.StatusOK, map[string]string{"content": "extracted text"})
	}))
	f.withSession(t)

	content, err := f.client.UploadPDF(context.Background(), "guide.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "extracted text", content)
}

func TestScrape(t *testing.T) {
	f := newClientFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/faq/scrape/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://example.com/help", body["url"])

		writeJSON(t, w, http.StatusOK, map[string]string{"content": "page text"})
	}))
	f.withSession(t)

	content, err := f.client.Scrape(context.Background(), "https://example.com/help")
	require.NoError(t, err)
	require.Equal(t, "page text", content)
}
