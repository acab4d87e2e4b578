package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/surajswas/unimail/internal/adapters/store"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// HTTPIntake exposes the triage service over a JSON HTTP API.
type HTTPIntake struct {
	service     *core.TriageService
	store       core.TriageStore
	logger      *zap.Logger
	textProc    *utils.TextProcessor
	listenAddr  string
	userID      int64
	maxBodySize int
	server      *http.Server
}

// NewHTTPIntake creates a new HTTP intake surface.
func NewHTTPIntake(
	service *core.TriageService,
	triageStore core.TriageStore,
	logger *zap.Logger,
	textProc *utils.TextProcessor,
	listenAddr string,
	userID int64,
	maxBodySize int,
) *HTTPIntake {
	return &HTTPIntake{
		service:     service,
		store:       triageStore,
		logger:      logger,
		textProc:    textProc,
		listenAddr:  listenAddr,
		userID:      userID,
		maxBodySize: maxBodySize,
	}
}

func (h *HTTPIntake) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /analyze", h.handleAnalyze)
	mux.HandleFunc("GET /emails/recent", h.handleRecentEmails)
	mux.HandleFunc("GET /alerts", h.handleAlerts)
	mux.HandleFunc("POST /alerts/{id}/read", h.handleMarkAlertRead)
	mux.HandleFunc("GET /preferences", h.handleGetPreferences)
	mux.HandleFunc("PUT /preferences", h.handlePutPreferences)
	mux.HandleFunc("GET /stats", h.handleStats)
	return mux
}

// Start starts the HTTP server.
func (h *HTTPIntake) Start() error {
	h.server = &http.Server{
		Addr:         h.listenAddr,
		Handler:      h.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	h.logger.Info("HTTP intake starting", zap.String("address", h.listenAddr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (h *HTTPIntake) Stop() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}

// ProcessEmail triages a single email for the configured user.
func (h *HTTPIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.TriageResult, error) {
	return h.service.Triage(ctx, h.userID, email)
}

type analyzeRequest struct {
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

type verdictResponse struct {
	ProcessingID         string   `json:"processing_id"`
	EmailID              int64    `json:"email_id"`
	IsSpam               bool     `json:"is_spam"`
	IsImportant          bool     `json:"is_important"`
	IsUniversityNotice   bool     `json:"is_university_notice"`
	Category             string   `json:"category"`
	PriorityScore        float64  `json:"priority_score"`
	SpamIndicators       []string `json:"spam_indicators"`
	ImportanceIndicators []string `json:"importance_indicators"`
	AlertRaised          bool     `json:"alert_raised"`
}

func (h *HTTPIntake) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sender == "" {
		h.writeError(w, http.StatusBadRequest, "sender is required")
		return
	}

	email := &core.Email{
		Sender:     req.Sender,
		Subject:    req.Subject,
		Body:       h.textProc.PrepareBody(req.Body, h.maxBodySize),
		ReceivedAt: req.ReceivedAt,
	}

	result, err := h.service.Triage(r.Context(), h.userID, email)
	if err != nil {
		h.logger.Error("Failed to triage email", zap.Error(err), zap.String("sender", req.Sender))
		h.writeError(w, http.StatusInternalServerError, "failed to triage email")
		return
	}

	v := result.Verdict
	h.writeJSON(w, http.StatusOK, verdictResponse{
		ProcessingID:         result.ProcessingID,
		EmailID:              result.Email.ID,
		IsSpam:               v.IsSpam,
		IsImportant:          v.IsImportant,
		IsUniversityNotice:   v.IsUniversityNotice,
		Category:             string(v.Category),
		PriorityScore:        v.PriorityScore,
		SpamIndicators:       v.SpamIndicators,
		ImportanceIndicators: v.ImportanceIndicators,
		AlertRaised:          result.Alert != nil,
	})
}

type emailResponse struct {
	ID            int64     `json:"id"`
	Sender        string    `json:"sender"`
	Subject       string    `json:"subject"`
	ReceivedAt    time.Time `json:"received_at"`
	IsSpam        bool      `json:"is_spam"`
	IsImportant   bool      `json:"is_important"`
	Category      string    `json:"category"`
	PriorityScore float64   `json:"priority_score"`
}

func (h *HTTPIntake) handleRecentEmails(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	emails, err := h.store.RecentEmails(r.Context(), h.userID, limit)
	if err != nil {
		h.logger.Error("Failed to list recent emails", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list emails")
		return
	}

	out := make([]emailResponse, 0, len(emails))
	for _, e := range emails {
		out = append(out, emailResponse{
			ID:            e.ID,
			Sender:        e.Sender,
			Subject:       e.Subject,
			ReceivedAt:    e.ReceivedAt,
			IsSpam:        e.IsSpam,
			IsImportant:   e.IsImportant,
			Category:      string(e.Category),
			PriorityScore: e.PriorityScore,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

type alertResponse struct {
	ID        int64     `json:"id"`
	EmailID   int64     `json:"email_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *HTTPIntake) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.store.UnreadAlerts(r.Context(), h.userID)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:        a.ID,
			EmailID:   a.EmailID,
			Message:   a.Message,
			CreatedAt: a.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *HTTPIntake) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	alertID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	if err := h.store.MarkAlertRead(r.Context(), h.userID, alertID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Error("Failed to mark alert read", zap.Error(err), zap.Int64("alert_id", alertID))
		h.writeError(w, http.StatusInternalServerError, "failed to mark alert read")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type preferencesPayload struct {
	Threshold           float64 `json:"threshold"`
	EnableNotifications bool    `json:"enable_notifications"`
	TrustedSenders      string  `json:"trusted_senders"`
	BlockedSenders      string  `json:"blocked_senders"`
}

func (h *HTTPIntake) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.GetPreferences(r.Context(), h.userID)
	if err != nil {
		h.logger.Error("Failed to load preferences", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if prefs == nil {
		prefs = core.DefaultPreferences(h.userID)
	}

	h.writeJSON(w, http.StatusOK, preferencesPayload{
		Threshold:           prefs.Threshold,
		EnableNotifications: prefs.EnableNotifications,
		TrustedSenders:      prefs.Trusted,
		BlockedSenders:      prefs.Blocked,
	})
}

func (h *HTTPIntake) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var payload preferencesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Threshold < 0 || payload.Threshold > 1 {
		h.writeError(w, http.StatusBadRequest, "threshold must be between 0 and 1")
		return
	}

	prefs := &core.Preferences{
		UserID:              h.userID,
		Threshold:           payload.Threshold,
		EnableNotifications: payload.EnableNotifications,
		Trusted:             payload.TrustedSenders,
		Blocked:             payload.BlockedSenders,
	}
	if err := h.store.SavePreferences(r.Context(), prefs); err != nil {
		h.logger.Error("Failed to save preferences", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

type statsResponse struct {
	TotalEmails    int                `json:"total_emails"`
	SpamCount      int                `json:"spam_count"`
	ImportantCount int                `json:"important_count"`
	Categories     map[string]int     `json:"categories"`
	TopDomains     []core.DomainCount `json:"top_domains"`
	EmailsToday    int                `json:"emails_today"`
}

func (h *HTTPIntake) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.MailboxStats(r.Context(), h.userID)
	if err != nil {
		h.logger.Error("Failed to load mailbox stats", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	domains, err := h.store.TopSenderDomains(r.Context(), h.userID, 10)
	if err != nil {
		h.logger.Error("Failed to load top sender domains", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	today, err := h.store.CountEmailsSince(r.Context(), h.userID, midnight)
	if err != nil {
		h.logger.Error("Failed to count today's emails", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	h.writeJSON(w, http.StatusOK, statsResponse{
		TotalEmails:    stats.TotalEmails,
		SpamCount:      stats.SpamCount,
		ImportantCount: stats.ImportantCount,
		Categories:     stats.Categories,
		TopDomains:     domains,
		EmailsToday:    today,
	})
}

func (h *HTTPIntake) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPIntake) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *HTTPIntake) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
