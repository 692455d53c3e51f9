// Package api serves decoded messages, timing statistics and charts over
// HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/irdecode/internal/db"
	"github.com/banshee-data/irdecode/internal/ir"
	"github.com/banshee-data/irdecode/internal/monitoring"
	"github.com/banshee-data/irdecode/internal/report"
	"github.com/banshee-data/irdecode/internal/stats"
)

// MaxMessagesLimit caps the limit query parameter of /api/messages.
const MaxMessagesLimit = 1000

// Store is the read side of the message store.
type Store interface {
	RecentMessages(limit int) ([]db.MessageRecord, error)
	SessionSummary(id string) (*db.SessionSummary, error)
}

// Server holds the state behind the HTTP routes. store and stats may be
// nil, in which case their routes answer 404.
type Server struct {
	store   Store
	stats   *stats.Recorder
	profile ir.Profile
	now     func() time.Time

	mu        sync.RWMutex
	sessionID string
}

func NewServer(store Store, st *stats.Recorder, profile ir.Profile) *Server {
	return &Server{
		store:   store,
		stats:   st,
		profile: profile,
		now:     time.Now,
	}
}

// SetSession selects the session reported by /api/session.
func (s *Server) SetSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

func (s *Server) session() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages", getOnly(s.listMessages))
	mux.HandleFunc("/api/session", getOnly(s.showSession))
	mux.HandleFunc("/api/stats", getOnly(s.showStats))
	mux.HandleFunc("/api/profile", getOnly(s.showProfile))
	mux.HandleFunc("/charts/timing", getOnly(s.timingChart))
	mux.HandleFunc("/charts/histogram.png", getOnly(s.histogram))
	return mux
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, http.StatusNotFound, "message store disabled")
		return
	}
	limit := db.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = min(n, MaxMessagesLimit)
	}

	msgs, err := s.store.RecentMessages(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load messages: %v", err))
		return
	}
	if msgs == nil {
		msgs = []db.MessageRecord{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = s.session()
	}
	if s.store == nil || id == "" {
		writeJSONError(w, http.StatusNotFound, "no session recorded")
		return
	}
	sum, err := s.store.SessionSummary(id)
	if errors.Is(err, db.ErrSessionNotFound) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type statsResponse struct {
	Samples int          `json:"samples"`
	Summary []stats.Stat `json:"summary"`
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSONError(w, http.StatusNotFound, "timing statistics disabled")
		return
	}
	summary := s.stats.Summary()
	if summary == nil {
		summary = []stats.Stat{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Samples: s.stats.Len(), Summary: summary})
}

type windowView struct {
	MinUS int64 `json:"min_us"`
	MaxUS int64 `json:"max_us"`
}

func viewOf(w ir.Window) windowView {
	return windowView{MinUS: w.Min.Microseconds(), MaxUS: w.Max.Microseconds()}
}

// ProfileView is the JSON form of an ir.Profile, in microseconds.
type ProfileView struct {
	HeaderPulse windowView `json:"header_pulse"`
	HeaderSpace windowView `json:"header_space"`
	BitPulse    windowView `json:"bit_pulse"`
	ZeroSpace   windowView `json:"zero_space"`
	OneSpace    windowView `json:"one_space"`
	GapSpaceUS  int64      `json:"gap_space_us"`
}

func (s *Server) showProfile(w http.ResponseWriter, r *http.Request) {
	p := s.profile
	writeJSON(w, http.StatusOK, ProfileView{
		HeaderPulse: viewOf(p.HeaderPulse),
		HeaderSpace: viewOf(p.HeaderSpace),
		BitPulse:    viewOf(p.BitPulse),
		ZeroSpace:   viewOf(p.ZeroSpace),
		OneSpace:    viewOf(p.OneSpace),
		GapSpaceUS:  p.GapSpace.Microseconds(),
	})
}

func (s *Server) timingChart(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSONError(w, http.StatusNotFound, "timing statistics disabled")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderTimingChart(w, s.stats.Summary(), s.now()); err != nil {
		monitoring.Logf("render timing chart: %v", err)
	}
}

func (s *Server) histogram(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSONError(w, http.StatusNotFound, "timing statistics disabled")
		return
	}
	// Render fully before writing so an error can still set the status.
	var buf bytes.Buffer
	err := report.WriteHistogram(&buf, s.stats, report.HistogramOptions{})
	if errors.Is(err, report.ErrNoSamples) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func Serve(ctx context.Context, addr string, handler http.Handler, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if ready != nil {
		ready <- ln.Addr()
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- server.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		// Force close the server if graceful shutdown fails
		server.Close()
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
