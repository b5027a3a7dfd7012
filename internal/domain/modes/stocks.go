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

// StockQuote is one symbol's market snapshot.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// StockQuotes is the cached payload for the stocks mode.
type StockQuotes struct {
	Quotes    []StockQuote `json:"quotes"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

func (q *StockQuotes) FingerprintFields() any { return q.Quotes }

// StocksProvider fetches quotes from a yahoo-finance style endpoint. Market
// hours drive the TTL: short while the exchange is open, long after close.
type StocksProvider struct {
	endpoint string
	symbols  string
	client   *http.Client
}

var _ Provider = (*StocksProvider)(nil)

func NewStocksProvider(endpoint, symbols string, client *http.Client) *StocksProvider {
	if client == nil {
		client = defaultClient()
	}
	return &StocksProvider{endpoint: endpoint, symbols: symbols, client: client}
}

func (p *StocksProvider) ModeID() string           { return "stocks" }
func (p *StocksProvider) CacheKey() string         { return "stocks:quotes" }
func (p *StocksProvider) Strategy() types.Strategy { return types.StrategyMarketAware }

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (p *StocksProvider) Fetch(ctx context.Context) (any, error) {
	url := fmt.Sprintf("%s?symbols=%s", p.endpoint, p.symbols)

	var resp quoteResponse
	if err := getJSON(ctx, p.client, url, &resp); err != nil {
		return nil, fmt.Errorf("stocks fetch failed: %w", err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("stocks fetch returned no quotes for %s", p.symbols)
	}

	quotes := make([]StockQuote, 0, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		quotes = append(quotes, StockQuote{
			Symbol:        r.Symbol,
			Price:         r.RegularMarketPrice,
			ChangePercent: r.RegularMarketChangePercent,
		})
	}
	return &StockQuotes{Quotes: quotes, FetchedAt: time.Now().UTC()}, nil
}

func (p *StocksProvider) Decode(raw []byte) (any, error) {
	var data StockQuotes
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode stocks snapshot: %w", err)
	}
	return &data, nil
}

func (p *StocksProvider) RenderCurrent(value any) (*display.Frame, error) {
	data, ok := value.(*StockQuotes)
	if !ok || len(data.Quotes) == 0 {
		return nil, fmt.Errorf("stocks: %w", display.ErrNoRenderable)
	}

	lines := make([]string, 0, 2)
	for _, q := range data.Quotes {
		lines = append(lines, fmt.Sprintf("%s %+.1f%%", q.Symbol, q.ChangePercent))
		if len(lines) == 2 {
			break
		}
	}
	return &display.Frame{
		ModeID:     p.ModeID(),
		Lines:      lines,
		ScrollText: p.ScrollText(value),
		RenderedAt: time.Now().UTC(),
	}, nil
}

// ScrollText builds the full ticker tape across every symbol.
func (p *StocksProvider) ScrollText(value any) string {
	data, ok := value.(*StockQuotes)
	if !ok || len(data.Quotes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(data.Quotes))
	for _, q := range data.Quotes {
		parts = append(parts, fmt.Sprintf("%s %.2f %+.1f%%", q.Symbol, q.Price, q.ChangePercent))
	}
	return strings.Join(parts, "   ")
}
