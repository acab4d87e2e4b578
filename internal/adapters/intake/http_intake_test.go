package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surajswas/unimail/internal/adapters/store"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
)

type emptyProfiles struct{}

func (emptyProfiles) Profiles() *core.Profiles { return core.EmptyProfiles() }

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()
	memStore := store.NewMemoryStore(logger)
	analyzer := core.NewAnalyzer(emptyProfiles{}, logger)
	service := core.NewTriageService(analyzer, memStore, logger)
	intake := NewHTTPIntake(service, memStore, logger, utils.NewTextProcessor(logger), "127.0.0.1:0", 1, 4096)

	srv := httptest.NewServer(intake.routes())
	t.Cleanup(srv.Close)
	return srv, memStore
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyzeImportantEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/analyze", map[string]string{
		"sender":  "dean@university.edu",
		"subject": "Important Academic Deadline",
		"body":    "Course registration closes Friday.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verdict verdictResponse
	decodeJSON(t, resp, &verdict)
	assert.NotEmpty(t, verdict.ProcessingID)
	assert.NotZero(t, verdict.EmailID)
	assert.False(t, verdict.IsSpam)
	assert.True(t, verdict.IsImportant)
	assert.Equal(t, "Academic", verdict.Category)
	assert.InDelta(t, 0.9, verdict.PriorityScore, 1e-9)
	assert.True(t, verdict.AlertRaised)
}

func TestAnalyzeSpamEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/analyze", map[string]string{
		"sender":  "winner@luckydraw.com",
		"subject": "YOU WON $5 MILLION!!!",
		"body":    "Claim your prize now.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verdict verdictResponse
	decodeJSON(t, resp, &verdict)
	assert.True(t, verdict.IsSpam)
	assert.False(t, verdict.IsImportant)
	assert.Equal(t, 0.0, verdict.PriorityScore)
	assert.False(t, verdict.AlertRaised)
}

func TestAnalyzeRequiresSender(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/analyze", map[string]string{
		"subject": "No sender here",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecentEmailsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, srv.URL+"/analyze", map[string]string{
			"sender":  fmt.Sprintf("sender%d@example.com", i),
			"subject": "hello",
		})
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/emails/recent?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var emails []emailResponse
	decodeJSON(t, resp, &emails)
	assert.Len(t, emails, 2)

	resp, err = http.Get(srv.URL + "/emails/recent?limit=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAlertLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/analyze", map[string]string{
		"sender":  "dean@university.edu",
		"subject": "Important Academic Deadline",
		"body":    "Course registration closes Friday.",
	})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/alerts")
	require.NoError(t, err)
	var alerts []alertResponse
	decodeJSON(t, resp, &alerts)
	require.Len(t, alerts, 1)

	resp = postJSON(t, fmt.Sprintf("%s/alerts/%d/read", srv.URL, alerts[0].ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/alerts")
	require.NoError(t, err)
	decodeJSON(t, resp, &alerts)
	assert.Empty(t, alerts)

	resp = postJSON(t, srv.URL+"/alerts/999/read", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreferencesRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/preferences")
	require.NoError(t, err)
	var prefs preferencesPayload
	decodeJSON(t, resp, &prefs)
	assert.Equal(t, core.DefaultThreshold, prefs.Threshold)
	assert.True(t, prefs.EnableNotifications)

	update := preferencesPayload{
		Threshold:           0.5,
		EnableNotifications: false,
		TrustedSenders:      "dean@university.edu",
		BlockedSenders:      "spam.com",
	}
	body, err := json.Marshal(update)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/preferences", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/preferences")
	require.NoError(t, err)
	decodeJSON(t, resp, &prefs)
	assert.Equal(t, update, prefs)
}

func TestPreferencesRejectsBadThreshold(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal(preferencesPayload{Threshold: 1.5})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/preferences", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, payload := range []map[string]string{
		{"sender": "dean@university.edu", "subject": "Important Academic Deadline", "body": "Course registration closes Friday."},
		{"sender": "winner@luckydraw.com", "subject": "YOU WON $5 MILLION!!!", "body": "Claim your prize now."},
	} {
		resp := postJSON(t, srv.URL+"/analyze", payload)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats statsResponse
	decodeJSON(t, resp, &stats)
	assert.Equal(t, 2, stats.TotalEmails)
	assert.Equal(t, 1, stats.SpamCount)
	assert.Equal(t, 1, stats.ImportantCount)
	assert.Equal(t, 1, stats.Categories["Academic"])
	assert.Len(t, stats.TopDomains, 2)
	assert.Equal(t, 2, stats.EmailsToday)
}
