// Package typography measures rendered text width in panel pixels, feeding
// the dynamic duration calculation for scrolling content.
package typography

import (
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// Measurer converts scroll text into a pixel width. It renders through the
// configured TTF face when one loads, and falls back to a fixed
// per-character width otherwise, so dynamic durations work on every
// install.
type Measurer struct {
	mu        sync.Mutex
	face      font.Face
	charWidth int
	logger    *logging.ChanneledLogger
}

// NewMeasurer loads the configured font. A missing or unparsable font file
// is logged and downgrades to the per-character heuristic.
func NewMeasurer(logger *logging.ChanneledLogger) *Measurer {
	m := &Measurer{
		charWidth: config.CharWidthPx,
		logger:    logger,
	}

	face, err := loadFace(config.FontPath, float64(config.FontSizePx), config.FontDPI)
	if err != nil {
		if logger != nil {
			logger.Media().Warn("Font unavailable, using per-character width",
				"path", config.FontPath, "charWidth", m.charWidth, "error", err.Error())
		}
		return m
	}

	m.face = face
	if logger != nil {
		logger.Media().Info("Font loaded for text measurement",
			"path", config.FontPath, "sizePx", config.FontSizePx)
	}
	return m
}

// NewHeuristicMeasurer creates a measurer that only uses the fixed
// per-character width.
func NewHeuristicMeasurer(charWidth int) *Measurer {
	if charWidth <= 0 {
		charWidth = config.CharWidthPx
	}
	return &Measurer{charWidth: charWidth}
}

func loadFace(path string, sizePx, dpi float64) (font.Face, error) {
	if path == "" {
		return nil, fmt.Errorf("no font path configured")
	}

	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	return truetype.NewFace(parsed, &truetype.Options{
		Size: sizePx,
		DPI:  dpi,
	}), nil
}

// Width returns the pixel width of text when rendered. Empty text is zero
// wide, which pins scrolling content's duration to the configured minimum.
func (m *Measurer) Width(text string) int {
	if text == "" {
		return 0
	}

	if m.face != nil {
		// truetype faces cache glyphs and are not safe for concurrent use.
		m.mu.Lock()
		defer m.mu.Unlock()
		return font.MeasureString(m.face, text).Ceil()
	}

	return utf8.RuneCountInString(text) * m.charWidth
}

// UsingFont reports whether a real font face backs measurements.
func (m *Measurer) UsingFont() bool {
	return m.face != nil
}
