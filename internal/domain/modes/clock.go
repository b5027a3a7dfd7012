package modes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

// ClockProvider renders wall-clock time. It never fetches and is the
// built-in fallback content when everything else is disabled or failing.
type ClockProvider struct {
	now func() time.Time
}

var _ Provider = (*ClockProvider)(nil)

func NewClockProvider() *ClockProvider {
	return &ClockProvider{now: time.Now}
}

func (p *ClockProvider) ModeID() string           { return "clock" }
func (p *ClockProvider) CacheKey() string         { return "" }
func (p *ClockProvider) Strategy() types.Strategy { return types.StrategyFixedTTL }

func (p *ClockProvider) Fetch(ctx context.Context) (any, error) {
	return nil, fmt.Errorf("clock renders locally and is never fetched")
}

func (p *ClockProvider) Decode(raw []byte) (any, error) {
	return nil, fmt.Errorf("clock values are not cached")
}

// RenderCurrent ignores the cached value and renders the current local time.
func (p *ClockProvider) RenderCurrent(value any) (*display.Frame, error) {
	now := p.now()
	return &display.Frame{
		ModeID: p.ModeID(),
		Lines: []string{
			now.Format("15:04"),
			strings.ToUpper(now.Format("Mon Jan 2")),
		},
		RenderedAt: now.UTC(),
	}, nil
}

func (p *ClockProvider) ScrollText(value any) string { return "" }
