package modes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

func jsonServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherProviderFetchAndRender(t *testing.T) {
	srv := jsonServer(t, `{"current_weather":{"temperature":21.4,"windspeed":14.2,"weathercode":61}}`)

	p := NewWeatherProvider(srv.URL, "40.71,-74.01", srv.Client(), nil)
	value, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	data, ok := value.(*WeatherData)
	if !ok {
		t.Fatalf("Fetch returned %T, want *WeatherData", value)
	}
	if data.TempC != 21.4 || data.WindKph != 14.2 {
		t.Errorf("unexpected readings: %+v", data)
	}
	if data.Condition != "rain" {
		t.Errorf("condition = %q, want rain", data.Condition)
	}

	frame, err := p.RenderCurrent(data)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if frame.ModeID != "weather" || len(frame.Lines) != 2 {
		t.Errorf("unexpected frame: %+v", frame)
	}
	if frame.Lines[0] != "21C" {
		t.Errorf("temperature line = %q", frame.Lines[0])
	}
	if p.ScrollText(data) != "" {
		t.Error("weather content should not scroll")
	}
}

func TestWeatherFingerprintIgnoresFetchTime(t *testing.T) {
	a := &WeatherData{Location: "40.71,-74.01", TempC: 20, WindKph: 10, WeatherCode: 3, FetchedAt: time.Now()}
	b := &WeatherData{Location: "40.71,-74.01", TempC: 20, WindKph: 10, WeatherCode: 3, FetchedAt: time.Now().Add(time.Hour)}
	if types.Fingerprint(a) != types.Fingerprint(b) {
		t.Error("fetch timestamp changed the fingerprint")
	}

	c := &WeatherData{Location: "40.71,-74.01", TempC: 25, WindKph: 10, WeatherCode: 3}
	if types.Fingerprint(a) == types.Fingerprint(c) {
		t.Error("temperature change did not change the fingerprint")
	}
}

func TestWeatherRejectsBadLocation(t *testing.T) {
	p := NewWeatherProvider("http://example.invalid", "not-coordinates", nil, nil)
	if _, err := p.Fetch(context.Background()); err == nil {
		t.Error("expected error for malformed location")
	}
}

func TestConditionForCode(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{0, "clear"},
		{2, "partly-cloudy"},
		{3, "cloudy"},
		{45, "fog"},
		{53, "drizzle"},
		{63, "rain"},
		{73, "snow"},
		{81, "showers"},
		{95, "thunderstorm"},
		{42, "unknown"},
	}
	for _, tc := range cases {
		if got := conditionForCode(tc.code); got != tc.want {
			t.Errorf("conditionForCode(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestGetJSONRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	if err := getJSON(context.Background(), srv.Client(), srv.URL, &out); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestStocksProviderFetchAndScroll(t *testing.T) {
	srv := jsonServer(t, `{"quoteResponse":{"result":[
		{"symbol":"AAPL","regularMarketPrice":182.52,"regularMarketChangePercent":0.92},
		{"symbol":"GOOG","regularMarketPrice":141.1,"regularMarketChangePercent":-0.21},
		{"symbol":"TSLA","regularMarketPrice":244.4,"regularMarketChangePercent":2.4}
	]}}`)

	p := NewStocksProvider(srv.URL, "AAPL,GOOG,TSLA", srv.Client())
	if p.Strategy() != types.StrategyMarketAware {
		t.Errorf("stocks strategy = %q", p.Strategy())
	}

	value, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data := value.(*StockQuotes)
	if len(data.Quotes) != 3 {
		t.Fatalf("got %d quotes, want 3", len(data.Quotes))
	}

	ticker := p.ScrollText(data)
	for _, sym := range []string{"AAPL", "GOOG", "TSLA"} {
		if !strings.Contains(ticker, sym) {
			t.Errorf("ticker missing %s: %q", sym, ticker)
		}
	}
	if !strings.Contains(ticker, "+0.9%") {
		t.Errorf("ticker missing signed change: %q", ticker)
	}

	frame, err := p.RenderCurrent(data)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if len(frame.Lines) != 2 {
		t.Errorf("frame shows %d lines, want 2", len(frame.Lines))
	}
	if frame.ScrollText == "" {
		t.Error("stocks frame should carry the ticker")
	}
}

func TestStocksFetchNoQuotes(t *testing.T) {
	srv := jsonServer(t, `{"quoteResponse":{"result":[]}}`)
	p := NewStocksProvider(srv.URL, "AAPL", srv.Client())
	if _, err := p.Fetch(context.Background()); err == nil {
		t.Error("expected error for empty quote result")
	}
}

const nflScoreboard = `{"events":[
	{"id":"1","shortName":"DAL @ PHI",
	 "status":{"type":{"state":"in","shortDetail":"Q3 5:24"}},
	 "competitions":[{"competitors":[
		{"homeAway":"home","score":"21","team":{"abbreviation":"PHI"}},
		{"homeAway":"away","score":"14","team":{"abbreviation":"DAL"}}
	 ]}]},
	{"id":"2","shortName":"NYG @ WSH",
	 "status":{"type":{"state":"pre","shortDetail":"Sun 1:00 PM"}},
	 "competitions":[{"competitors":[
		{"homeAway":"home","score":"","team":{"abbreviation":"WSH"}},
		{"homeAway":"away","score":"","team":{"abbreviation":"NYG"}}
	 ]}]}
]}`

func TestSportsProviderFetchUpdatesLiveMonitor(t *testing.T) {
	srv := jsonServer(t, nflScoreboard)
	monitor := display.NewLiveMonitor()

	p := NewSportsProvider("nfl", srv.URL, srv.Client(), monitor, nil)
	if p.ModeID() != "sports_nfl" || p.CacheKey() != "sports:nfl:scoreboard" {
		t.Fatalf("unexpected identity: %s / %s", p.ModeID(), p.CacheKey())
	}

	value, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	board := value.(*Scoreboard)
	if len(board.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(board.Events))
	}
	if !monitor.IsLive("sports_nfl") {
		t.Error("in-progress game did not set the live monitor")
	}

	// A later scoreboard with no in-progress games clears the signal.
	done := jsonServer(t, `{"events":[
		{"id":"1","shortName":"DAL @ PHI",
		 "status":{"type":{"state":"post","shortDetail":"Final"}},
		 "competitions":[{"competitors":[
			{"homeAway":"home","score":"28","team":{"abbreviation":"PHI"}},
			{"homeAway":"away","score":"14","team":{"abbreviation":"DAL"}}
		 ]}]}
	]}`)
	p2 := NewSportsProvider("nfl", done.URL, done.Client(), monitor, nil)
	if _, err := p2.Fetch(context.Background()); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if monitor.IsLive("sports_nfl") {
		t.Error("finished games left the live signal set")
	}
}

func TestSportsRenderLeadsWithLiveGame(t *testing.T) {
	board := &Scoreboard{League: "nfl", Events: []SportEvent{
		{ID: "2", ShortName: "NYG @ WSH", State: "pre", Detail: "Sun 1:00 PM"},
		{ID: "1", AwayTeam: "DAL", AwayScore: "14", HomeTeam: "PHI", HomeScore: "21", State: "in", Detail: "Q3 5:24"},
	}}

	p := NewSportsProvider("nfl", "http://example.invalid", nil, nil, nil)
	frame, err := p.RenderCurrent(board)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if frame.Lines[0] != "DAL 14" || frame.Lines[1] != "PHI 21" {
		t.Errorf("frame leads with %v, want the live game", frame.Lines)
	}
	if frame.ScrollText == "" {
		t.Error("multi-game board should scroll")
	}
}

func TestSportsPartialRendersLoading(t *testing.T) {
	p := NewSportsProvider("nba", "http://example.invalid", nil, nil, nil)

	value, ok := p.Partial()
	if !ok {
		t.Fatal("sports provider should offer a partial value")
	}
	board := value.(*Scoreboard)
	if !board.Partial {
		t.Error("partial flag not set")
	}

	frame, err := p.RenderCurrent(board)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if frame.Lines[0] != "NBA" || frame.Lines[1] != "LOADING" {
		t.Errorf("partial frame = %v", frame.Lines)
	}

	full := &Scoreboard{League: "nba", Events: []SportEvent{{ID: "1", State: "post"}}}
	if types.Fingerprint(board) == types.Fingerprint(full) {
		t.Error("completing fetch should flip the fingerprint")
	}
}

func TestSportsDecodeDoesNotSignalLive(t *testing.T) {
	monitor := display.NewLiveMonitor()
	p := NewSportsProvider("nfl", "http://example.invalid", nil, monitor, nil)

	value, err := p.Decode([]byte(`{"league":"nfl","events":[{"id":"1","state":"in"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !value.(*Scoreboard).HasLive() {
		t.Fatal("decoded board should report live")
	}
	if monitor.IsLive("sports_nfl") {
		t.Error("snapshot restore must not trigger preemption")
	}
}

func TestSportsUnknownLeague(t *testing.T) {
	p := NewSportsProvider("cricket", "http://example.invalid", nil, nil, nil)
	if _, err := p.Fetch(context.Background()); err == nil {
		t.Error("expected error for unknown league")
	}
}

func TestNewsProviderCapsAndScrolls(t *testing.T) {
	srv := jsonServer(t, `{"hits":[
		{"title":"First story","points":91},
		{"title":"Second story","points":85},
		{"title":"","points":3},
		{"title":"Third story","points":70},
		{"title":"Fourth story","points":64}
	]}`)

	p := NewNewsProvider(srv.URL, 3, srv.Client())
	value, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data := value.(*Headlines)
	if len(data.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(data.Items))
	}

	ticker := p.ScrollText(data)
	if !strings.Contains(ticker, "First story +++ Second story") {
		t.Errorf("unexpected ticker: %q", ticker)
	}

	frame, err := p.RenderCurrent(data)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if frame.ScrollText != ticker {
		t.Error("frame should carry the headline ticker")
	}
}

func TestNewsRenderRejectsForeignValue(t *testing.T) {
	p := NewNewsProvider("http://example.invalid", 5, nil)
	if _, err := p.RenderCurrent(&WeatherData{}); !errors.Is(err, display.ErrNoRenderable) {
		t.Errorf("expected ErrNoRenderable, got %v", err)
	}
}

func TestClockRendersLocalTime(t *testing.T) {
	p := NewClockProvider()
	p.now = func() time.Time {
		return time.Date(2026, time.August, 25, 14, 5, 0, 0, time.Local)
	}

	frame, err := p.RenderCurrent(nil)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if frame.Lines[0] != "14:05" {
		t.Errorf("time line = %q", frame.Lines[0])
	}
	if frame.Lines[1] != "TUE AUG 25" {
		t.Errorf("date line = %q", frame.Lines[1])
	}
	if p.CacheKey() != "" {
		t.Error("clock must not declare a cache key")
	}
}

func TestRegistryResolution(t *testing.T) {
	clock := NewClockProvider()
	news := NewNewsProvider("http://example.invalid", 5, nil)

	r, err := NewRegistry(clock, news)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if _, ok := r.ByMode("news"); !ok {
		t.Error("news provider not resolvable by mode")
	}
	if _, ok := r.ByCacheKey("news:headlines"); !ok {
		t.Error("news provider not resolvable by cache key")
	}
	if _, ok := r.ByCacheKey(""); ok {
		t.Error("empty cache key must not resolve")
	}
	if ids := r.ModeIDs(); len(ids) != 2 || ids[0] != "clock" {
		t.Errorf("ModeIDs = %v", ids)
	}

	if err := r.Register(NewClockProvider()); err == nil {
		t.Error("duplicate mode id should be rejected")
	}
}
