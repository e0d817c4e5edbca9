/*
handlers.go - HTTP handlers for the time-tracking portal

ENDPOINTS:
  Session:
    GET    /api/session                   Hydrate and describe the session
    DELETE /api/session                   Sign out (discard session state)

  Calendar:
    GET    /api/calendar/{year}/{month}   Month grid

  Entries:
    GET    /api/entries/{date}            One day's entry
    PUT    /api/entries/{date}            Save one day's entry
    DELETE /api/entries/{date}            Clear one day's entry

  Weeks:
    GET    /api/week?date=YYYY-MM-DD      Week summary (default: today)
    GET    /api/weeks/submitted           Locked weeks
    POST   /api/week/submit               Submit a week for approval

ERROR MAPPING:
  400 invalid input        409 locked week / already submitted
  401 missing worker id    503 hydration failed (retryable)
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/timeportal/config"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/submission"
	"github.com/warp/timeportal/summary"
)

// Handler holds the dependencies every request needs.
type Handler struct {
	cfg      config.Config
	sessions *sessions
}

// NewHandler wires a handler over the persistence collaborators. syncer
// may be nil to disable entry mirroring.
func NewHandler(cfg config.Config, cache entry.Cache, docs submission.DocumentStore, syncer *entry.Syncer) *Handler {
	remote := submission.NewRemoteSource(docs)
	build := func(userID string) (*session, error) {
		store, err := entry.NewStore(userID, cache, remote, syncer)
		if err != nil {
			return nil, err
		}
		wf := submission.NewWorkflow(store, docs, cfg.Target())
		wf.Attempts = cfg.SyncAttempts
		wf.Backoff = cfg.SyncBackoffDuration()
		return &session{store: store, workflow: wf}, nil
	}
	return &Handler{cfg: cfg, sessions: newSessions(build)}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := h.sessions.get(r.Context(), workerID(r))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

// =============================================================================
// SESSION
// =============================================================================

// GetSession hydrates (on first use) and describes the caller's session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionDTO{
		UserID:       sess.store.UserID(),
		CacheEntries: sess.hydrated.CacheEntries,
		RemoteWeeks:  sess.hydrated.RemoteWeeks,
		Degraded:     sess.hydrated.Degraded,
	})
}

// SignOut discards the caller's session state.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.drop(workerID(r))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALENDAR
// =============================================================================

// GetMonth returns the month grid.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	mv, err := summary.Month(sess.store, year, time.Month(month), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(mv))
}

// =============================================================================
// ENTRIES
// =============================================================================

func parseDateParam(r *http.Request) (datemath.Date, error) {
	return datemath.ParseDate(chi.URLParam(r, "date"))
}

// GetEntry returns one day's entry, 404 when absent.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	d, err := parseDateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	e, found := sess.store.Get(d)
	if !found {
		writeError(w, http.StatusNotFound, "no entry for "+d.String(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(d, e))
}

// PutEntry saves one day's entry. Zero hours without time-off clears the day.
func (h *Handler) PutEntry(w http.ResponseWriter, r *http.Request) {
	d, err := parseDateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req PutEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	e := entry.TimeEntry{
		Hours:            decimal.NewFromFloat(req.Hours),
		IsTimeOff:        req.IsTimeOff,
		ManagerApproved:  req.ManagerApproved,
		OvertimeApproved: req.OvertimeApproved,
		ShortDayApproved: req.ShortDayApproved,
	}
	if err := sess.store.Put(r.Context(), d, e); err != nil {
		writeDomainError(w, err)
		return
	}

	if saved, found := sess.store.Get(d); found {
		writeJSON(w, http.StatusOK, toEntryDTO(d, saved))
		return
	}
	w.WriteHeader(http.StatusNoContent) // the put was a clear
}

// DeleteEntry clears one day's entry.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	d, err := parseDateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.store.Delete(r.Context(), d); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WEEKS
// =============================================================================

func refDate(r *http.Request) (datemath.Date, error) {
	if q := r.URL.Query().Get("date"); q != "" {
		return datemath.ParseDate(q)
	}
	return datemath.Today(), nil
}

// GetWeek returns the summary for the week containing ?date (default today).
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	ref, err := refDate(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	agg := summary.Summarize(sess.store, ref, h.cfg.Target())
	writeJSON(w, http.StatusOK, toWeekSummaryDTO(agg))
}

// ListSubmittedWeeks returns the caller's locked weeks, sorted.
func (h *Handler) ListSubmittedWeeks(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	keys := sess.store.SubmittedWeeks()
	weeks := make([]string, 0, len(keys))
	for _, k := range keys {
		weeks = append(weeks, k.String())
	}
	sort.Strings(weeks)
	writeJSON(w, http.StatusOK, weeks)
}

// SubmitWeek runs the submission workflow.
//
// Without confirmed=true, this only prepares: the response reports the
// pending state and whether the week is short, so the client can prompt.
// With confirmations present, the workflow commits.
func (h *Handler) SubmitWeek(w http.ResponseWriter, r *http.Request) {
	var req SubmitWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ref := datemath.Today()
	if req.Date != "" {
		var err error
		if ref, err = datemath.ParseDate(req.Date); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	pending, err := sess.workflow.Prepare(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if !req.Confirmed {
		writeJSON(w, http.StatusOK, SubmitWeekResponse{
			Week:      pending.Week.String(),
			State:     string(pending.State()),
			ShortWeek: pending.ShortWeek,
		})
		return
	}

	state, err := sess.workflow.Commit(r.Context(), pending, submission.Decision{
		Confirmed:       req.Confirmed,
		AcceptShortWeek: req.AcceptShortWeek,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitWeekResponse{
		Week:      pending.Week.String(),
		State:     string(state),
		ShortWeek: pending.ShortWeek,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("timeportal: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Code = errCode(err)
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entry.ErrLockedWeek), errors.Is(err, submission.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entry.ErrNoUser):
		writeError(w, http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, entry.ErrHydration):
		writeError(w, http.StatusServiceUnavailable, err.Error(), err)
	case entry.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), err)
	default:
		log.Printf("timeportal: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func errCode(err error) string {
	switch {
	case errors.Is(err, entry.ErrLockedWeek):
		return "locked_week"
	case errors.Is(err, submission.ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, entry.ErrHydration):
		return "hydration_failed"
	case errors.Is(err, entry.ErrNoUser):
		return "no_user"
	case errors.Is(err, entry.ErrInvalidEntry), errors.Is(err, datemath.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
