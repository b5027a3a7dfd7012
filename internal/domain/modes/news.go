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

// Headline is one story on the ticker.
type Headline struct {
	Title  string `json:"title"`
	Points int    `json:"points"`
}

// Headlines is the cached payload for the news mode.
type Headlines struct {
	Items     []Headline `json:"items"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

func (h *Headlines) FingerprintFields() any { return h.Items }

// NewsProvider fetches front-page stories from an Algolia-style search
// endpoint. Headlines scroll, so this mode's duration is dynamic.
type NewsProvider struct {
	endpoint string
	maxItems int
	client   *http.Client
}

var _ Provider = (*NewsProvider)(nil)

func NewNewsProvider(endpoint string, maxItems int, client *http.Client) *NewsProvider {
	if client == nil {
		client = defaultClient()
	}
	if maxItems <= 0 {
		maxItems = 5
	}
	return &NewsProvider{endpoint: endpoint, maxItems: maxItems, client: client}
}

func (p *NewsProvider) ModeID() string           { return "news" }
func (p *NewsProvider) CacheKey() string         { return "news:headlines" }
func (p *NewsProvider) Strategy() types.Strategy { return types.StrategyFixedTTL }

type searchResponse struct {
	Hits []struct {
		Title  string `json:"title"`
		Points int    `json:"points"`
	} `json:"hits"`
}

func (p *NewsProvider) Fetch(ctx context.Context) (any, error) {
	var resp searchResponse
	if err := getJSON(ctx, p.client, p.endpoint, &resp); err != nil {
		return nil, fmt.Errorf("news fetch failed: %w", err)
	}
	if len(resp.Hits) == 0 {
		return nil, fmt.Errorf("news fetch returned no stories")
	}

	items := make([]Headline, 0, p.maxItems)
	for _, hit := range resp.Hits {
		if hit.Title == "" {
			continue
		}
		items = append(items, Headline{Title: hit.Title, Points: hit.Points})
		if len(items) == p.maxItems {
			break
		}
	}
	return &Headlines{Items: items, FetchedAt: time.Now().UTC()}, nil
}

func (p *NewsProvider) Decode(raw []byte) (any, error) {
	var data Headlines
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode news snapshot: %w", err)
	}
	return &data, nil
}

func (p *NewsProvider) RenderCurrent(value any) (*display.Frame, error) {
	data, ok := value.(*Headlines)
	if !ok || len(data.Items) == 0 {
		return nil, fmt.Errorf("news: %w", display.ErrNoRenderable)
	}
	return &display.Frame{
		ModeID:     p.ModeID(),
		Lines:      []string{"NEWS"},
		ScrollText: p.ScrollText(value),
		RenderedAt: time.Now().UTC(),
	}, nil
}

// ScrollText joins every headline into one ticker string.
func (p *NewsProvider) ScrollText(value any) string {
	data, ok := value.(*Headlines)
	if !ok || len(data.Items) == 0 {
		return ""
	}
	titles := make([]string, 0, len(data.Items))
	for _, item := range data.Items {
		titles = append(titles, item.Title)
	}
	return strings.Join(titles, " +++ ")
}
