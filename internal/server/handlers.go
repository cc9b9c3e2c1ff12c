package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/analysis"
	"flicktrainer/internal/db"
	"flicktrainer/internal/geometry"
	"flicktrainer/internal/metrics"
	"flicktrainer/internal/patterns"
	"flicktrainer/internal/session"
	"flicktrainer/internal/utility"
	"flicktrainer/internal/wshub"
)

const defaultRandomCount = 10

var (
	errBadRequest = errors.New("bad request")
	errNoPending  = errors.New("no pending recommendation")
)

type Server struct {
	Sessions   *session.Store
	Generator  *patterns.Generator
	DB         *db.DB                    // nil if no database configured
	PerfBuffer chan db.PerformanceRecord // nil if no database configured
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encode error: %v\n", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoPending):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, analysis.ErrInvalidPerformance),
		errors.Is(err, patterns.ErrUnknownFamily),
		errors.Is(err, patterns.ErrUnknownTier),
		errors.Is(err, patterns.ErrInvalidCount),
		errors.Is(err, patterns.ErrInvalidRequest),
		errors.Is(err, geometry.ErrUnknownZone),
		errors.Is(err, adaptation.ErrUnknownSensitivity):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[Server] Internal error: %v\n", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) getSession(r *http.Request) (*session.Context, error) {
	return s.Sessions.Get(r.PathValue("id"))
}

type createSessionRequest struct {
	PlayerID    string `json:"playerId"`
	Sensitivity string `json:"sensitivity"`
	DynamicMode bool   `json:"dynamicMode"`
	AutoAdjust  bool   `json:"autoAdjust"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	sens, err := adaptation.ParseSensitivity(req.Sensitivity)
	if err != nil {
		writeError(w, err)
		return
	}

	c := s.Sessions.Create(r.Context(), req.PlayerID, adaptation.Settings{
		DynamicMode: req.DynamicMode,
		AutoAdjust:  req.AutoAdjust,
		Sensitivity: sens,
	})
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var report analysis.PerformanceReport
	if err := decodeBody(r, &report); err != nil {
		writeError(w, err)
		return
	}
	perf, err := report.Performance()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := c.CompleteSession(r.Context(), perf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"showRecommendations": false}
	if rec, ok := c.Recommendation(); ok {
		resp["showRecommendations"] = true
		resp["recommendation"] = rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptRecommendation(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, ok := c.AcceptRecommendation()
	if !ok {
		writeError(w, errNoPending)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDismissRecommendation(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !c.DismissRecommendation() {
		writeError(w, errNoPending)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot().State)
}

func (s *Server) handleSetDifficulty(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Difficulty *float64 `json:"difficulty"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Difficulty == nil || !utility.IsFinite(*req.Difficulty) {
		writeError(w, fmt.Errorf("%w: difficulty must be a number", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, c.SetDifficulty(*req.Difficulty))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Sensitivity *string `json:"sensitivity"`
		DynamicMode *bool   `json:"dynamicMode"`
		AutoAdjust  *bool   `json:"autoAdjust"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch := adaptation.SettingsPatch{DynamicMode: req.DynamicMode, AutoAdjust: req.AutoAdjust}
	if req.Sensitivity != nil {
		sens, err := adaptation.ParseSensitivity(*req.Sensitivity)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Sensitivity = &sens
	}
	writeJSON(w, http.StatusOK, c.PatchSettings(patch))
}

func (s *Server) handleResetProfile(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.ResetProfile(r.Context()))
}

// patternOptions reads count and zone from the query string. Count defaults
// to defaultRandomCount when absent.
func patternOptions(r *http.Request) (int, geometry.Zone, error) {
	q := r.URL.Query()
	count := defaultRandomCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, "", fmt.Errorf("%w: count %q", errBadRequest, v)
		}
		count = n
	}
	var zone geometry.Zone
	if v := q.Get("zone"); v != "" {
		z, err := geometry.ParseZone(strings.ToLower(v))
		if err != nil {
			return 0, "", err
		}
		zone = z
	}
	return count, zone, nil
}

func (s *Server) handleSessionPattern(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	family, err := patterns.ParseFamily(r.PathValue("family"))
	if err != nil {
		writeError(w, err)
		return
	}
	count, zone, err := patternOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := c.NextPattern(family, count, zone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadRequest, key, v)
	}
	return f, nil
}

// handlePattern generates a pattern without a session. The adaptive family
// reads rt, accuracy, best and worst from the query string.
func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	family, err := patterns.ParseFamily(r.PathValue("family"))
	if err != nil {
		writeError(w, err)
		return
	}
	tier := patterns.TierGold
	if v := r.URL.Query().Get("tier"); v != "" {
		if tier, err = patterns.ParseTier(v); err != nil {
			writeError(w, err)
			return
		}
	}
	count, zone, err := patternOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := patterns.Request{Family: family, Tier: tier, Count: count, Zone: zone}
	if family == patterns.FamilyAdaptive {
		q := r.URL.Query()
		stats := patterns.AdaptiveStats{BestZone: geometry.ZoneNear, WorstZone: geometry.ZoneFar}
		if stats.AverageReactionTime, err = queryFloat(r, "rt", 500); err != nil {
			writeError(w, err)
			return
		}
		if stats.Accuracy, err = queryFloat(r, "accuracy", 50); err != nil {
			writeError(w, err)
			return
		}
		if v := q.Get("best"); v != "" {
			stats.BestZone = geometry.Zone(strings.ToLower(v))
		}
		if v := q.Get("worst"); v != "" {
			stats.WorstZone = geometry.Zone(strings.ToLower(v))
		}
		req.Stats = stats
	}

	p, err := s.Generator.Generate(req)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.ObservePattern(family.String(), string(tier))
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := c.Broadcaster.Subscribe()
	defer c.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.Broadcaster.Done():
			return
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Msg, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

// handleWS attaches a game-loop client. Adaptation events are pushed as they
// happen; the client may accept or dismiss the pending recommendation and
// request patterns.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.getSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[WSHub] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	client := &wshub.Client{ID: uuid.NewString(), Conn: conn, Send: make(chan []byte, 32)}
	c.Hub.Register(client)
	defer c.Hub.Unregister(client.ID)

	go client.WritePump(ctx)

	st := c.Snapshot().State
	c.Hub.Send(client.ID, wshub.ServerMessage{
		Type:        wshub.TypeAdjustments,
		Difficulty:  st.CurrentDifficulty,
		Adjustments: &st.ActiveAdjustments,
	})

	err = c.Hub.ReadPump(ctx, client, func(msg wshub.ClientMessage) (wshub.ServerMessage, bool) {
		return handleClientMessage(c, msg)
	})
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure && websocket.CloseStatus(err) != websocket.StatusGoingAway {
		log.Printf("[WSHub] Client %s disconnected: %v\n", client.ID, err)
	}
}

func handleClientMessage(c *session.Context, msg wshub.ClientMessage) (wshub.ServerMessage, bool) {
	switch msg.Type {
	case wshub.TypeAccept:
		// The resulting adjustments reach every client through the hub.
		if _, ok := c.AcceptRecommendation(); !ok {
			return wshub.ServerMessage{Type: wshub.TypeError, Error: errNoPending.Error()}, true
		}
		return wshub.ServerMessage{}, false
	case wshub.TypeDismiss:
		if !c.DismissRecommendation() {
			return wshub.ServerMessage{Type: wshub.TypeError, Error: errNoPending.Error()}, true
		}
		return wshub.ServerMessage{}, false
	case wshub.TypePattern:
		family, err := patterns.ParseFamily(msg.Family)
		if err != nil {
			return wshub.ServerMessage{Type: wshub.TypeError, Error: err.Error()}, true
		}
		count := msg.Count
		if count == 0 {
			count = defaultRandomCount
		}
		var zone geometry.Zone
		if msg.Zone != "" {
			if zone, err = geometry.ParseZone(msg.Zone); err != nil {
				return wshub.ServerMessage{Type: wshub.TypeError, Error: err.Error()}, true
			}
		}
		p, err := c.NextPattern(family, count, zone)
		if err != nil {
			return wshub.ServerMessage{Type: wshub.TypeError, Error: err.Error()}, true
		}
		return wshub.ServerMessage{Type: wshub.TypePattern, Pattern: &p}, true
	}
	return wshub.ServerMessage{Type: wshub.TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}, true
}

func (s *Server) handlePlayerSummary(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "database not configured"})
		return
	}
	summary, err := s.DB.PlayerSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions.Len()})
}
