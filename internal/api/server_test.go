package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/postgres"
)

func instantSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	auth = nil
	events.Clear()

	tracker, err := engine.NewTracker(nil, "", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	pg := engine.NewPlayground(blocks.Playground(),
		engine.WithSleeper(instantSleep),
		engine.WithReward(5, tracker.RunReward()))

	set, err := engine.NewPuzzleSet(&engine.Puzzle{
		ID:          "dc_1",
		Title:       "Move and Turn",
		TitleAr:     "تحرك واستدر",
		Catalog:     blocks.Puzzles(),
		Solution:    []string{"move", "turn"},
		CoinsReward: 15,
	}, &engine.Puzzle{
		ID:            "dc_2",
		Title:         "Say Hello",
		Description:   "Make Scratch greet everyone",
		DescriptionAr: "اجعل سكراتش يحيي الجميع",
		Joke:          "What did the computer say to Scratch? You're a-meow-zing!",
		Catalog:       blocks.Puzzles(),
		Solution:      []string{"say"},
		CoinsReward:   10,
	})
	if err != nil {
		t.Fatalf("NewPuzzleSet: %v", err)
	}

	s := NewServer(pg, set, tracker, blocks.English)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func payload(t *testing.T, c *blocks.Catalog, id string) []byte {
	t.Helper()
	d, ok := c.Lookup(id)
	if !ok {
		t.Fatalf("no block %s", id)
	}
	b, err := blocks.EncodePayload(d)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	return b
}

func TestHealthEndpoint(t *testing.T) {
	clearTLSEnv(t)
	w := do(t, newTestServer(t).Handler(), "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if resp := decode[HealthResponse](t, w); resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func setReadiness(engineReady, mqttConnected, mqttOptional, pgConnected, pgOptional bool) {
	readiness.mu.Lock()
	readiness.engineReady = engineReady
	readiness.mqttConnected = mqttConnected
	readiness.mqttOptional = mqttOptional
	readiness.postgresConnected = pgConnected
	readiness.postgresOptional = pgOptional
	readiness.mu.Unlock()
}

func TestReadyEndpoint(t *testing.T) {
	clearTLSEnv(t)
	tests := []struct {
		name       string
		state      [5]bool
		wantCode   int
		wantChecks map[string]string
	}{
		{"all ready", [5]bool{true, true, false, true, false}, http.StatusOK,
			map[string]string{"engine": "ok", "mqtt": "ok", "postgres": "ok"}},
		{"engine not ready", [5]bool{false, true, false, true, false}, http.StatusServiceUnavailable,
			map[string]string{"engine": "not_ready"}},
		{"optional mqtt down", [5]bool{true, false, true, true, false}, http.StatusOK,
			map[string]string{"mqtt": "unavailable"}},
		{"required mqtt down", [5]bool{true, false, false, true, false}, http.StatusServiceUnavailable,
			map[string]string{"mqtt": "not_ready"}},
		{"optional postgres down", [5]bool{true, true, false, false, true}, http.StatusOK,
			map[string]string{"postgres": "unavailable"}},
	}

	for _, tt := range tests {
		setReadiness(tt.state[0], tt.state[1], tt.state[2], tt.state[3], tt.state[4])
		w := httptest.NewRecorder()
		readyHandler(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != tt.wantCode {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.wantCode, w.Code)
		}
		resp := decode[ReadinessResponse](t, w)
		if resp.Ready != (tt.wantCode == http.StatusOK) {
			t.Errorf("%s: unexpected ready=%v", tt.name, resp.Ready)
		}
		if !resp.Ready && resp.NotReadyMsg == "" {
			t.Errorf("%s: expected non-empty message", tt.name)
		}
		for check, want := range tt.wantChecks {
			if got := resp.Checks[check].Status; got != want {
				t.Errorf("%s: %s status = %q, want %q", tt.name, check, got, want)
			}
		}
	}
}

func TestSetReadinessState(t *testing.T) {
	SetEngineReady(true)
	SetMQTTState(false, true)
	SetPostgresState(true, false)

	readiness.mu.RLock()
	defer readiness.mu.RUnlock()
	if !readiness.engineReady || readiness.mqttConnected || !readiness.mqttOptional ||
		!readiness.postgresConnected || readiness.postgresOptional {
		t.Errorf("setters did not record state: %+v", readiness)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	resp := decode[CatalogResponse](t, do(t, h, "GET", "/catalog", nil))
	if resp.Name != "playground" || len(resp.Groups) == 0 {
		t.Fatalf("unexpected catalog %+v", resp)
	}
	if resp.Groups[0].Category != blocks.CategoryMotion || resp.Groups[0].Label != "Motion" {
		t.Errorf("expected motion first, got %+v", resp.Groups[0])
	}

	ar := decode[CatalogResponse](t, do(t, h, "GET", "/catalog?set=puzzles&lang=ar", nil))
	if ar.Name != "puzzles" || ar.Locale != blocks.Arabic || ar.Groups[0].Label != "حركة" {
		t.Errorf("unexpected arabic puzzle catalog %+v", ar)
	}

	if w := do(t, h, "GET", "/catalog?set=nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown set, got %d", w.Code)
	}
}

func TestDropRemoveClear(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	move := payload(t, blocks.Playground(), "move_10")
	for i := 0; i < 2; i++ {
		resp := decode[DropResponse](t, do(t, h, "POST", "/composition/drop", move))
		if !resp.Accepted || resp.Length != i+1 {
			t.Fatalf("drop %d: unexpected %+v", i, resp)
		}
	}

	rejected := decode[DropResponse](t, do(t, h, "POST", "/composition/drop", []byte("{broken")))
	if rejected.Accepted || rejected.Length != 2 {
		t.Errorf("malformed payload should be ignored, got %+v", rejected)
	}

	comp := decode[CompositionResponse](t, do(t, h, "GET", "/composition", nil))
	if len(comp.IDs) != 2 || comp.Blocks[0].InstanceID == comp.Blocks[1].InstanceID {
		t.Errorf("expected two distinct instances, got %+v", comp)
	}

	out := decode[RemoveResponse](t, do(t, h, "POST", "/composition/remove", []byte(`{"index":7}`)))
	if out.Removed || out.Length != 2 {
		t.Errorf("out of range remove should be a no-op, got %+v", out)
	}
	rm := decode[RemoveResponse](t, do(t, h, "POST", "/composition/remove", []byte(`{"index":0}`)))
	if !rm.Removed || rm.Length != 1 {
		t.Errorf("unexpected remove %+v", rm)
	}
	if w := do(t, h, "POST", "/composition/remove", []byte(`{}`)); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without index, got %d", w.Code)
	}

	do(t, h, "POST", "/composition/clear", nil)
	if s.playground.Surface.Len() != 0 {
		t.Error("expected empty composition after clear")
	}
}

func TestRunEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	do(t, h, "POST", "/composition/drop", payload(t, blocks.Playground(), "move_10"))
	do(t, h, "POST", "/composition/drop", payload(t, blocks.Playground(), "move_10"))

	resp := decode[RunResponse](t, do(t, h, "POST", "/run", nil))
	if !resp.Started || len(resp.Program) != 2 {
		t.Fatalf("unexpected run response %+v", resp)
	}

	waitFor(t, 2*time.Second, func() bool { return !s.playground.Runner.Active() }, "run to finish")

	st := decode[StageResponse](t, do(t, h, "GET", "/stage", nil))
	if st.State.X != 20 || st.Frame.LeftPct != 55 || st.Running {
		t.Errorf("unexpected stage %+v", st)
	}

	prog := decode[engine.Progress](t, do(t, h, "GET", "/progress", nil))
	if prog.Coins != 5 {
		t.Errorf("expected completion reward of 5, got %d", prog.Coins)
	}
}

func TestPuzzleFlow(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	list := decode[[]PuzzleSummary](t, do(t, h, "GET", "/puzzles?lang=ar", nil))
	if len(list) != 2 || list[0].Title != "تحرك واستدر" || list[1].Title != "Say Hello" {
		t.Fatalf("unexpected list %+v", list)
	}

	if w := do(t, h, "GET", "/puzzles/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	// wrong order first
	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "turn"))
	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "move"))
	if c := decode[CheckResponse](t, do(t, h, "POST", "/puzzles/dc_1/check", nil)); c.Correct {
		t.Error("expected wrong order to fail")
	}

	p := decode[PuzzleResponse](t, do(t, h, "GET", "/puzzles/dc_1", nil))
	if !p.Checked || p.Correct || len(p.Composition.IDs) != 2 {
		t.Errorf("unexpected puzzle state %+v", p)
	}

	do(t, h, "POST", "/puzzles/dc_1/clear", nil)
	p = decode[PuzzleResponse](t, do(t, h, "GET", "/puzzles/dc_1", nil))
	if p.Checked {
		t.Error("expected verdict reset by clear")
	}

	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "move"))
	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "turn"))
	c := decode[CheckResponse](t, do(t, h, "POST", "/puzzles/dc_1/check", nil))
	if !c.Correct || c.Coins != 15 {
		t.Errorf("expected correct check paying 15, got %+v", c)
	}

	// checking the same answer again pays nothing
	for i := 0; i < 4; i++ {
		c = decode[CheckResponse](t, do(t, h, "POST", "/puzzles/dc_1/check", nil))
		if !c.Correct || c.Coins != 0 || !c.AlreadyCompleted {
			t.Errorf("repeat check %d: expected no payout, got %+v", i, c)
		}
	}

	// nor does solving it again after a change
	do(t, h, "POST", "/puzzles/dc_1/clear", nil)
	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "move"))
	do(t, h, "POST", "/puzzles/dc_1/drop", payload(t, blocks.Puzzles(), "turn"))
	c = decode[CheckResponse](t, do(t, h, "POST", "/puzzles/dc_1/check", nil))
	if !c.Correct || c.Coins != 0 || !c.AlreadyCompleted {
		t.Errorf("expected re-solve to pay nothing, got %+v", c)
	}

	prog := decode[engine.Progress](t, do(t, h, "GET", "/progress", nil))
	if prog.Coins != 15 || !prog.IsSolved("dc_1") {
		t.Errorf("unexpected progress %+v", prog)
	}

	list = decode[[]PuzzleSummary](t, do(t, h, "GET", "/puzzles", nil))
	if !list[0].Solved || list[1].Solved {
		t.Errorf("expected only dc_1 solved, got %+v", list)
	}
}

func TestDailyEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }

	h := s.Handler()

	// day 1 of 2 puzzles
	d := decode[DailyResponse](t, do(t, h, "GET", "/puzzles/daily", nil))
	if d.ID != "dc_2" {
		t.Errorf("expected dc_2 on day 1, got %s", d.ID)
	}
	if d.Date != engine.DayKey(s.now()) || d.Description != "Make Scratch greet everyone" || d.Joke == "" {
		t.Errorf("unexpected daily %+v", d)
	}
	if d.Completed {
		t.Error("daily should not start completed")
	}

	d = decode[DailyResponse](t, do(t, h, "GET", "/puzzles/daily?lang=ar", nil))
	if d.Description != "اجعل سكراتش يحيي الجميع" {
		t.Errorf("expected arabic description, got %q", d.Description)
	}
}

func TestDailyPaysOncePerDay(t *testing.T) {
	s := newTestServer(t)
	day := time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)
	clock := func() time.Time { return day }
	s.now = clock
	s.tracker.SetClock(clock)
	s.tracker.SetDaily(s.puzzles.Daily)
	h := s.Handler()

	solve := func() CheckResponse {
		do(t, h, "POST", "/puzzles/dc_2/clear", nil)
		do(t, h, "POST", "/puzzles/dc_2/drop", payload(t, blocks.Puzzles(), "say"))
		return decode[CheckResponse](t, do(t, h, "POST", "/puzzles/dc_2/check", nil))
	}

	if c := solve(); c.Coins != 10 {
		t.Fatalf("expected first daily solve to pay 10, got %+v", c)
	}
	if c := solve(); c.Coins != 0 || !c.AlreadyCompleted {
		t.Errorf("expected second solve today to pay nothing, got %+v", c)
	}
	if d := decode[DailyResponse](t, do(t, h, "GET", "/puzzles/daily", nil)); !d.Completed {
		t.Error("expected daily marked completed")
	}

	// Jan 3 is day 3, dc_2 again
	day = day.AddDate(0, 0, 2)
	if c := solve(); c.Coins != 10 {
		t.Errorf("expected a new day to pay again, got %+v", c)
	}
	prog := decode[engine.Progress](t, do(t, h, "GET", "/progress", nil))
	if prog.Coins != 20 || len(prog.DailyCompleted) != 2 {
		t.Errorf("unexpected progress %+v", prog)
	}
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	auth = &authConfig{
		admin:   credentials{"admin", "secret"},
		learner: credentials{"kid", "play"},
		enabled: true,
	}
	defer func() { auth = nil }()
	h := s.Handler()

	tests := []struct {
		path       string
		user, pass string
		want       int
	}{
		{"/health", "", "", http.StatusOK},
		{"/catalog", "", "", http.StatusUnauthorized},
		{"/catalog", "kid", "play", http.StatusOK},
		{"/events", "kid", "play", http.StatusForbidden},
		{"/events", "admin", "secret", http.StatusOK},
		{"/metrics", "admin", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if tt.user != "" {
			req.SetBasicAuth(tt.user, tt.pass)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s as %q: expected %d, got %d", tt.path, tt.user, tt.want, w.Code)
		}
	}
}

type fakeLedger struct {
	rows      []postgres.RewardRow
	err       error
	lastLimit int
}

func (l *fakeLedger) Rewards(limit int) ([]postgres.RewardRow, error) {
	l.lastLimit = limit
	return l.rows, l.err
}

func (l *fakeLedger) TotalCoins() (int, error) {
	total := 0
	for _, r := range l.rows {
		total += r.Coins
	}
	return total, l.err
}

func TestRewardsEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if w := do(t, h, "GET", "/rewards", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a ledger, got %d", w.Code)
	}

	ledger := &fakeLedger{rows: []postgres.RewardRow{
		{RewardID: 2, Source: "dc_1", Coins: 15},
		{RewardID: 1, Source: "run", Coins: 5},
	}}
	s.SetLedger(ledger)

	w := do(t, h, "GET", "/rewards?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[RewardsResponse](t, w)
	if resp.Total != 20 {
		t.Errorf("expected total 20, got %d", resp.Total)
	}
	if len(resp.Rewards) != 2 || resp.Rewards[0].Source != "dc_1" {
		t.Errorf("unexpected rewards %+v", resp.Rewards)
	}
	if ledger.lastLimit != 10 {
		t.Errorf("expected limit 10, got %d", ledger.lastLimit)
	}

	if w := do(t, h, "GET", "/rewards?limit=ten", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}

	ledger.err = errors.New("connection refused")
	if w := do(t, h, "GET", "/rewards", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on ledger error, got %d", w.Code)
	}
}

func TestUIDragsUnderPayloadMIME(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s.Handler(), "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "const payloadMIME = '"+blocks.PayloadMIME+"'") {
		t.Error("expected drag transfer type in page")
	}
	if strings.Contains(body, "setData('") {
		t.Error("expected drag source to use the shared transfer type")
	}
}

type fakeHistory struct {
	rows      []postgres.EventRow
	err       error
	lastLimit int
}

func (f *fakeHistory) Query(limit int) ([]postgres.EventRow, error) {
	f.lastLimit = limit
	return f.rows, f.err
}

func TestEventHistoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if w := do(t, h, "GET", "/events/history", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without an event store, got %d", w.Code)
	}

	history := &fakeHistory{rows: []postgres.EventRow{
		{EventID: 2, Event: "reward.granted", Level: "info"},
		{EventID: 1, Event: "puzzle.solved", Level: "info"},
	}}
	s.SetHistory(history)

	w := do(t, h, "GET", "/events/history?limit=50", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rows := decode[[]postgres.EventRow](t, w)
	if len(rows) != 2 || rows[0].Event != "reward.granted" {
		t.Errorf("unexpected rows %+v", rows)
	}
	if history.lastLimit != 50 {
		t.Errorf("expected limit 50, got %d", history.lastLimit)
	}

	if w := do(t, h, "GET", "/events/history?limit=x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
	history.err = errors.New("connection refused")
	if w := do(t, h, "GET", "/events/history", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on store error, got %d", w.Code)
	}
}
