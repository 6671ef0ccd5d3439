package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/composition"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/postgres"
)

// Server exposes one hosted playground and its puzzle sessions over HTTP.
type Server struct {
	playground *engine.Playground
	puzzles    *engine.PuzzleSet
	tracker    *engine.Tracker
	locale     blocks.Locale

	// runs outlive the request that toggled them
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*engine.PuzzleSession
	ledger   RewardLedger
	history  EventHistory

	now func() time.Time
}

// NewServer wires the handlers to pg. puzzles and tracker may be nil.
func NewServer(pg *engine.Playground, puzzles *engine.PuzzleSet, tracker *engine.Tracker, locale blocks.Locale) *Server {
	if puzzles == nil {
		puzzles, _ = engine.NewPuzzleSet()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		playground: pg,
		puzzles:    puzzles,
		tracker:    tracker,
		locale:     locale,
		runCtx:     ctx,
		cancelRun:  cancel,
		sessions:   make(map[string]*engine.PuzzleSession),
		now:        time.Now,
	}
}

// Close cancels any run in progress.
func (s *Server) Close() {
	s.cancelRun()
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "api",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

// CatalogGroup is one palette section with its localised heading.
type CatalogGroup struct {
	Category blocks.Category     `json:"category"`
	Label    string              `json:"label"`
	Blocks   []blocks.Descriptor `json:"blocks"`
}

type CatalogResponse struct {
	Name   string         `json:"name"`
	Locale blocks.Locale  `json:"locale"`
	Groups []CatalogGroup `json:"groups"`
}

func (s *Server) localeOf(r *http.Request) blocks.Locale {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return blocks.ParseLocale(lang)
	}
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return blocks.ParseLocale(lang)
	}
	return s.locale
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	catalog := s.playground.Catalog
	if set := r.URL.Query().Get("set"); set != "" {
		c, ok := blocks.ByName(set)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown catalog")
			return
		}
		catalog = c
	}
	writeJSON(w, http.StatusOK, catalogResponse(catalog, s.localeOf(r)))
}

func catalogResponse(c *blocks.Catalog, locale blocks.Locale) CatalogResponse {
	resp := CatalogResponse{Name: c.Name(), Locale: locale}
	for _, g := range c.Groups() {
		resp.Groups = append(resp.Groups, CatalogGroup{
			Category: g.Category,
			Label:    g.Category.Label(locale),
			Blocks:   g.Blocks,
		})
	}
	return resp
}

type CompositionResponse struct {
	Blocks []blocks.Instance `json:"blocks"`
	IDs    []string          `json:"ids"`
}

func compositionResponse(surface *composition.Surface) CompositionResponse {
	return CompositionResponse{
		Blocks: surface.Instances(),
		IDs:    surface.IDs(),
	}
}

// DropResponse reports whether a payload was appended. A rejected payload
// is not an HTTP error: the composition is simply unchanged.
type DropResponse struct {
	Accepted bool             `json:"accepted"`
	Instance *blocks.Instance `json:"instance,omitempty"`
	Length   int              `json:"length"`
}

type RemoveRequest struct {
	Index *int `json:"index"`
}

type RemoveResponse struct {
	Removed bool `json:"removed"`
	Length  int  `json:"length"`
}

func dropOn(surface *composition.Surface, w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	resp := DropResponse{}
	if inst, ok := surface.Drop(body); ok {
		resp.Accepted = true
		resp.Instance = &inst
	}
	resp.Length = surface.Len()
	writeJSON(w, http.StatusOK, resp)
}

func removeOn(surface *composition.Surface, w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index required")
		return
	}
	removed := surface.RemoveAt(*req.Index)
	writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed, Length: surface.Len()})
}

func (s *Server) compositionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, compositionResponse(s.playground.Surface))
}

func (s *Server) dropHandler(w http.ResponseWriter, r *http.Request) {
	dropOn(s.playground.Surface, w, r)
}

func (s *Server) removeHandler(w http.ResponseWriter, r *http.Request) {
	removeOn(s.playground.Surface, w, r)
}

func (s *Server) clearHandler(w http.ResponseWriter, r *http.Request) {
	s.playground.Clear()
	writeJSON(w, http.StatusOK, StageResponse{
		State: s.playground.Stage.Snapshot(),
		Frame: sprite.FrameOf(s.playground.Stage.Snapshot()),
	})
}

type RunResponse struct {
	Started bool     `json:"started"`
	Program []string `json:"program"`
}

// runHandler is the green flag: it starts the program, or stops the run
// in progress.
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	program := s.playground.Surface.IDs()
	started := s.playground.Runner.Toggle(s.runCtx, program, nil)
	writeJSON(w, http.StatusOK, RunResponse{Started: started, Program: program})
}

type StageResponse struct {
	State   sprite.State `json:"state"`
	Frame   sprite.Frame `json:"frame"`
	Running bool         `json:"running"`
}

func (s *Server) stageHandler(w http.ResponseWriter, r *http.Request) {
	st := s.playground.Stage.Snapshot()
	writeJSON(w, http.StatusOK, StageResponse{
		State:   st,
		Frame:   sprite.FrameOf(st),
		Running: s.playground.Runner.Running(),
	})
}

// PuzzleSummary is a puzzle as listed to learners. The solution is never
// sent.
type PuzzleSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Coins  int    `json:"coins"`
	Solved bool   `json:"solved"`
	Length int    `json:"length"`
}

type PuzzleResponse struct {
	PuzzleSummary
	Catalog     CatalogResponse     `json:"catalog"`
	Composition CompositionResponse `json:"composition"`
	Checked     bool                `json:"checked"`
	Correct     bool                `json:"correct"`
}

func (s *Server) summary(p *engine.Puzzle, locale blocks.Locale) PuzzleSummary {
	solved := false
	if s.tracker != nil {
		prog := s.tracker.Snapshot()
		solved = prog.IsSolved(p.ID)
	}
	return PuzzleSummary{
		ID:     p.ID,
		Title:  p.TitleFor(locale),
		Coins:  p.CoinsReward,
		Solved: solved,
		Length: len(p.Solution),
	}
}

func (s *Server) puzzlesHandler(w http.ResponseWriter, r *http.Request) {
	locale := s.localeOf(r)
	out := []PuzzleSummary{}
	for _, p := range s.puzzles.All() {
		out = append(out, s.summary(p, locale))
	}
	writeJSON(w, http.StatusOK, out)
}

// DailyResponse is today's challenge. Completed is true once its reward
// was paid today.
type DailyResponse struct {
	PuzzleSummary
	Date        string `json:"date"`
	Description string `json:"description"`
	Joke        string `json:"joke_of_the_day"`
	Completed   bool   `json:"completed"`
}

func (s *Server) dailyHandler(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	p, ok := s.puzzles.Daily(now)
	if !ok {
		writeError(w, http.StatusNotFound, "no puzzles configured")
		return
	}
	locale := s.localeOf(r)
	day := engine.DayKey(now)
	resp := DailyResponse{
		PuzzleSummary: s.summary(p, locale),
		Date:          day,
		Description:   p.DescriptionFor(locale),
		Joke:          p.JokeFor(locale),
	}
	if s.tracker != nil {
		prog := s.tracker.Snapshot()
		resp.Completed = prog.CompletedDaily(day)
	}
	writeJSON(w, http.StatusOK, resp)
}

// session returns the open session for id, opening one on first use.
func (s *Server) session(id string) (*engine.PuzzleSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, true
	}
	p, ok := s.puzzles.Get(id)
	if !ok {
		return nil, false
	}
	var reward engine.RewardFunc
	if s.tracker != nil {
		reward = s.tracker.PuzzleReward(id)
	}
	sess := engine.NewPuzzleSession(p, reward)
	s.sessions[id] = sess
	return sess, true
}

func (s *Server) puzzleResponse(sess *engine.PuzzleSession, locale blocks.Locale) PuzzleResponse {
	correct, checked := sess.Verdict()
	return PuzzleResponse{
		PuzzleSummary: s.summary(sess.Puzzle(), locale),
		Catalog:       catalogResponse(sess.Puzzle().Catalog, locale),
		Composition:   compositionResponse(sess.Surface()),
		Checked:       checked,
		Correct:       correct,
	}
}

// withSession resolves {id} to a session.
func (s *Server) withSession(fn func(*engine.PuzzleSession, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "puzzle not found")
			return
		}
		fn(sess, w, r)
	}
}

func (s *Server) puzzleHandler(sess *engine.PuzzleSession, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.puzzleResponse(sess, s.localeOf(r)))
}

func (s *Server) puzzleDropHandler(sess *engine.PuzzleSession, w http.ResponseWriter, r *http.Request) {
	dropOn(sess.Surface(), w, r)
}

func (s *Server) puzzleRemoveHandler(sess *engine.PuzzleSession, w http.ResponseWriter, r *http.Request) {
	removeOn(sess.Surface(), w, r)
}

func (s *Server) puzzleClearHandler(sess *engine.PuzzleSession, w http.ResponseWriter, r *http.Request) {
	sess.Surface().Clear()
	writeJSON(w, http.StatusOK, s.puzzleResponse(sess, s.localeOf(r)))
}

// CheckResponse carries the verdict and the coins this check paid.
// AlreadyCompleted marks a correct answer whose reward was claimed before.
type CheckResponse struct {
	Correct          bool `json:"correct"`
	Coins            int  `json:"coins"`
	AlreadyCompleted bool `json:"already_completed,omitempty"`
}

func (s *Server) puzzleCheckHandler(sess *engine.PuzzleSession, w http.ResponseWriter, r *http.Request) {
	eligible := s.tracker != nil && s.tracker.CanClaim(sess.Puzzle().ID)

	resp := CheckResponse{Correct: sess.Check()}
	if resp.Correct {
		if eligible && sess.Rewarded() {
			resp.Coins = sess.Puzzle().CoinsReward
		}
		resp.AlreadyCompleted = s.tracker != nil && !eligible
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeJSON(w, http.StatusOK, engine.Progress{Solved: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

// RewardLedger is the persisted coins ledger; the Postgres client
// implements it.
type RewardLedger interface {
	Rewards(limit int) ([]postgres.RewardRow, error)
	TotalCoins() (int, error)
}

// SetLedger exposes l on GET /rewards.
func (s *Server) SetLedger(l RewardLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
}

type RewardsResponse struct {
	Total   int                  `json:"total"`
	Rewards []postgres.RewardRow `json:"rewards"`
}

func (s *Server) rewardsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ledger := s.ledger
	s.mu.Unlock()
	if ledger == nil {
		writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	total, err := ledger.TotalCoins()
	if err != nil {
		log.Printf("rewards: %v", err)
		writeError(w, http.StatusInternalServerError, "ledger unavailable")
		return
	}
	rows, err := ledger.Rewards(limit)
	if err != nil {
		log.Printf("rewards: %v", err)
		writeError(w, http.StatusInternalServerError, "ledger unavailable")
		return
	}
	if rows == nil {
		rows = []postgres.RewardRow{}
	}
	writeJSON(w, http.StatusOK, RewardsResponse{Total: total, Rewards: rows})
}

// EventHistory is the persisted event log; the Postgres client implements
// it.
type EventHistory interface {
	Query(limit int) ([]postgres.EventRow, error)
}

// SetHistory exposes h on GET /events/history.
func (s *Server) SetHistory(h EventHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = h
}

// eventHistoryHandler serves persisted events, newest first. Unlike
// /events it reaches past the in-memory buffer and restarts.
func (s *Server) eventHistoryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	history := s.history
	s.mu.Unlock()
	if history == nil {
		writeError(w, http.StatusNotFound, "no event store configured")
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	rows, err := history.Query(limit)
	if err != nil {
		log.Printf("event history: %v", err)
		writeError(w, http.StatusInternalServerError, "event store unavailable")
		return
	}
	if rows == nil {
		rows = []postgres.EventRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// maxPayload bounds a drag payload body.
const maxPayload = 64 << 10

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxPayload))
}

// Handler returns the routed, auth-wrapped API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler)
	mux.HandleFunc("GET /metrics", RequireAdmin(metricsHandler))
	mux.HandleFunc("GET /events", RequireAdmin(eventsHandler))
	mux.HandleFunc("GET /events/history", RequireAdmin(s.eventHistoryHandler))
	mux.HandleFunc("GET /rewards", RequireAdmin(s.rewardsHandler))
	mux.HandleFunc("GET /ws/events", RequireAnyRole(wsEventsHandler))
	mux.HandleFunc("GET /{$}", RequireAnyRole(uiHandler))

	mux.HandleFunc("GET /catalog", RequireAnyRole(s.catalogHandler))
	mux.HandleFunc("GET /composition", RequireAnyRole(s.compositionHandler))
	mux.HandleFunc("POST /composition/drop", RequireAnyRole(s.dropHandler))
	mux.HandleFunc("POST /composition/remove", RequireAnyRole(s.removeHandler))
	mux.HandleFunc("POST /composition/clear", RequireAnyRole(s.clearHandler))
	mux.HandleFunc("POST /run", RequireAnyRole(s.runHandler))
	mux.HandleFunc("GET /stage", RequireAnyRole(s.stageHandler))

	mux.HandleFunc("GET /puzzles", RequireAnyRole(s.puzzlesHandler))
	mux.HandleFunc("GET /puzzles/daily", RequireAnyRole(s.dailyHandler))
	mux.HandleFunc("GET /puzzles/{id}", RequireAnyRole(s.withSession(s.puzzleHandler)))
	mux.HandleFunc("POST /puzzles/{id}/drop", RequireAnyRole(s.withSession(s.puzzleDropHandler)))
	mux.HandleFunc("POST /puzzles/{id}/remove", RequireAnyRole(s.withSession(s.puzzleRemoveHandler)))
	mux.HandleFunc("POST /puzzles/{id}/clear", RequireAnyRole(s.withSession(s.puzzleClearHandler)))
	mux.HandleFunc("POST /puzzles/{id}/check", RequireAnyRole(s.withSession(s.puzzleCheckHandler)))
	mux.HandleFunc("GET /progress", RequireAnyRole(s.progressHandler))
	return mux
}

// ListenAndServe starts the API server on the given port, over TLS when
// configured. It blocks until the server exits.
func (s *Server) ListenAndServe(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if tlsCfg := LoadTLSConfig(); tlsCfg != nil {
		srv.TLSConfig = tlsCfg
		log.Printf("API listening on %s (TLS)\n", srv.Addr)
		return srv.ListenAndServeTLS("", "")
	}
	log.Printf("API listening on %s\n", srv.Addr)
	return srv.ListenAndServe()
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func (s *Server) Start(port int) {
	go func() {
		if err := s.ListenAndServe(port); err != nil && err != http.ErrServerClosed {
			log.Printf("api server error: %v", err)
		}
	}()
}
