package modes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

// SportEvent is one game on a league scoreboard. State follows the feed's
// pre | in | post convention.
type SportEvent struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	HomeScore string `json:"homeScore"`
	AwayScore string `json:"awayScore"`
	State     string `json:"state"`
	Detail    string `json:"detail"`
}

// Scoreboard is the cached payload for one league's sports mode. Partial
// marks a placeholder stored while the first full fetch runs.
type Scoreboard struct {
	League    string       `json:"league"`
	Events    []SportEvent `json:"events"`
	Partial   bool         `json:"partial,omitempty"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

func (s *Scoreboard) FingerprintFields() any {
	return struct {
		League  string       `json:"league"`
		Events  []SportEvent `json:"events"`
		Partial bool         `json:"partial"`
	}{s.League, s.Events, s.Partial}
}

// HasLive reports whether any game is in progress.
func (s *Scoreboard) HasLive() bool {
	for _, e := range s.Events {
		if e.State == "in" {
			return true
		}
	}
	return false
}

// leaguePaths maps league ids to the sport/league path segment of
// ESPN-style scoreboard APIs.
var leaguePaths = map[string]string{
	"nfl":   "football/nfl",
	"ncaaf": "football/college-football",
	"nba":   "basketball/nba",
	"ncaam": "basketball/mens-college-basketball",
	"mlb":   "baseball/mlb",
	"nhl":   "hockey/nhl",
	"mls":   "soccer/usa.1",
}

// SportsProvider fetches one league's scoreboard and feeds the live monitor
// so in-progress games can preempt the rotation.
type SportsProvider struct {
	league   string
	endpoint string
	client   *http.Client
	monitor  *display.LiveMonitor
	icons    IconCache
}

var _ Provider = (*SportsProvider)(nil)
var _ PartialProvider = (*SportsProvider)(nil)

func NewSportsProvider(league, endpoint string, client *http.Client, monitor *display.LiveMonitor, icons IconCache) *SportsProvider {
	if client == nil {
		client = defaultClient()
	}
	return &SportsProvider{
		league:   strings.ToLower(strings.TrimSpace(league)),
		endpoint: endpoint,
		client:   client,
		monitor:  monitor,
		icons:    icons,
	}
}

func (p *SportsProvider) ModeID() string           { return "sports_" + p.league }
func (p *SportsProvider) CacheKey() string         { return "sports:" + p.league + ":scoreboard" }
func (p *SportsProvider) Strategy() types.Strategy { return types.StrategySportLiveInterval }
func (p *SportsProvider) League() string           { return p.league }

type scoreboardResponse struct {
	Events []struct {
		ID        string `json:"id"`
		ShortName string `json:"shortName"`
		Status    struct {
			Type struct {
				State       string `json:"state"`
				ShortDetail string `json:"shortDetail"`
			} `json:"type"`
		} `json:"status"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					Abbreviation string `json:"abbreviation"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

func (p *SportsProvider) Fetch(ctx context.Context) (any, error) {
	path, ok := leaguePaths[p.league]
	if !ok {
		return nil, fmt.Errorf("unknown league %q", p.league)
	}
	url := fmt.Sprintf("%s/%s/scoreboard", p.endpoint, path)

	var resp scoreboardResponse
	if err := getJSON(ctx, p.client, url, &resp); err != nil {
		return nil, fmt.Errorf("%s scoreboard fetch failed: %w", p.league, err)
	}

	board := &Scoreboard{League: p.league, FetchedAt: time.Now().UTC()}
	for _, ev := range resp.Events {
		event := SportEvent{
			ID:        ev.ID,
			ShortName: ev.ShortName,
			State:     ev.Status.Type.State,
			Detail:    ev.Status.Type.ShortDetail,
		}
		if len(ev.Competitions) > 0 {
			for _, c := range ev.Competitions[0].Competitors {
				switch c.HomeAway {
				case "home":
					event.HomeTeam = c.Team.Abbreviation
					event.HomeScore = c.Score
				case "away":
					event.AwayTeam = c.Team.Abbreviation
					event.AwayScore = c.Score
				}
			}
		}
		board.Events = append(board.Events, event)
	}

	p.signalLive(board)
	return board, nil
}

// signalLive keeps the live monitor in step with the latest scoreboard.
func (p *SportsProvider) signalLive(board *Scoreboard) {
	if p.monitor == nil {
		return
	}
	if board.HasLive() {
		p.monitor.SetLive(p.ModeID())
	} else {
		p.monitor.ClearLive(p.ModeID())
	}
}

// Decode rehydrates a snapshot without touching the live monitor; restored
// game states are too old to justify preemption.
func (p *SportsProvider) Decode(raw []byte) (any, error) {
	var board Scoreboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", p.league, err)
	}
	return &board, nil
}

// Partial provides an instant placeholder scoreboard so the mode renders
// while the first full fetch is still running.
func (p *SportsProvider) Partial() (any, bool) {
	return &Scoreboard{League: p.league, Partial: true, FetchedAt: time.Now().UTC()}, true
}

func (p *SportsProvider) RenderCurrent(value any) (*display.Frame, error) {
	board, ok := value.(*Scoreboard)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.ModeID(), display.ErrNoRenderable)
	}

	frame := &display.Frame{ModeID: p.ModeID(), RenderedAt: time.Now().UTC()}
	if p.icons != nil {
		if path, ok := p.icons.Cached(p.league); ok {
			frame.IconPath = path
		}
	}

	label := strings.ToUpper(p.league)
	switch {
	case len(board.Events) == 0 && board.Partial:
		frame.Lines = []string{label, "LOADING"}
	case len(board.Events) == 0:
		frame.Lines = []string{label, "NO GAMES"}
	default:
		featured := featuredEvent(board.Events)
		if featured.State == "pre" {
			frame.Lines = []string{featured.ShortName, featured.Detail}
		} else {
			frame.Lines = []string{
				fmt.Sprintf("%s %s", featured.AwayTeam, featured.AwayScore),
				fmt.Sprintf("%s %s", featured.HomeTeam, featured.HomeScore),
			}
		}
		frame.ScrollText = p.ScrollText(value)
	}
	return frame, nil
}

// ScrollText produces a multi-game ticker once there is more than one game
// to show.
func (p *SportsProvider) ScrollText(value any) string {
	board, ok := value.(*Scoreboard)
	if !ok || len(board.Events) <= 1 {
		return ""
	}
	parts := make([]string, 0, len(board.Events))
	for _, e := range board.Events {
		parts = append(parts, eventSummary(e))
	}
	return strings.Join(parts, "   ")
}

// featuredEvent picks the game the panel leads with: in-progress first,
// then upcoming, then whatever finished most recently in feed order.
func featuredEvent(events []SportEvent) SportEvent {
	for _, e := range events {
		if e.State == "in" {
			return e
		}
	}
	for _, e := range events {
		if e.State == "pre" {
			return e
		}
	}
	return events[0]
}

func eventSummary(e SportEvent) string {
	if e.State == "pre" {
		return fmt.Sprintf("%s %s", e.ShortName, e.Detail)
	}
	return fmt.Sprintf("%s %s %s %s %s", e.AwayTeam, e.AwayScore, e.HomeTeam, e.HomeScore, e.Detail)
}
