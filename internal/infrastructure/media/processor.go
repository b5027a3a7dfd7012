// Package media prepares icon art for the panel. Source images arrive as
// PNG, JPEG, or WebP, get fitted to the panel tile size, and are cached on
// disk as WebP so render paths never pay decode or resize cost twice.
package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// IconProcessor converts source art into panel-ready WebP tiles rooted at a
// single media directory (sources/ for raw art, icons/ for processed output).
type IconProcessor struct {
	basePath string
	tileSize int
	quality  float32
	logger   *logging.ChanneledLogger
}

// NewIconProcessor creates an icon processor rooted at basePath. A tileSize
// of zero or less falls back to the configured panel tile.
func NewIconProcessor(basePath string, tileSize int, logger *logging.ChanneledLogger) *IconProcessor {
	if tileSize <= 0 {
		tileSize = config.IconTilePx
	}
	return &IconProcessor{
		basePath: basePath,
		tileSize: tileSize,
		quality:  float32(config.IconWebPQuality),
		logger:   logger,
	}
}

// EnsureDirs creates the media directory layout.
func (p *IconProcessor) EnsureDirs() error {
	for _, dir := range []string{p.sourcesDir(), p.iconsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create media directory %s: %w", dir, err)
		}
	}
	return nil
}

func (p *IconProcessor) sourcesDir() string {
	return filepath.Join(p.basePath, "sources")
}

func (p *IconProcessor) iconsDir() string {
	return filepath.Join(p.basePath, "icons")
}

// IconPath returns where the processed tile for name lives, whether or not
// it exists yet.
func (p *IconProcessor) IconPath(name string) string {
	return filepath.Join(p.iconsDir(), fmt.Sprintf("%s_%d.webp", sanitizeName(name), p.tileSize))
}

// Cached reports the processed tile path for name when it is already on disk.
func (p *IconProcessor) Cached(name string) (string, bool) {
	path := p.IconPath(name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Ingest writes raw source art to the media directory, sniffing the image
// format from the payload. Returns the stored source path.
func (p *IconProcessor) Ingest(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload for %s", name)
	}
	ext, err := sniffFormat(data)
	if err != nil {
		return "", fmt.Errorf("failed to ingest %s: %w", name, err)
	}
	if err := os.MkdirAll(p.sourcesDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create sources directory: %w", err)
	}

	sourcePath := filepath.Join(p.sourcesDir(), sanitizeName(name)+"."+ext)
	if err := os.WriteFile(sourcePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write source image: %w", err)
	}
	if p.logger != nil {
		p.logger.Media().Debug("Ingested source art", "name", name, "format", ext, "bytes", len(data))
	}
	return sourcePath, nil
}

// IngestAndProcess stores raw source art and immediately produces the panel
// tile for it. Returns the processed icon path.
func (p *IconProcessor) IngestAndProcess(name string, data []byte) (string, error) {
	sourcePath, err := p.Ingest(name, data)
	if err != nil {
		return "", err
	}
	return p.ProcessFile(sourcePath, name)
}

// ProcessIcon locates the stored source art for name and produces its panel
// tile. The cached tile is reused when it is newer than the source.
func (p *IconProcessor) ProcessIcon(name string) (string, error) {
	sourcePath, err := p.findSource(name)
	if err != nil {
		return "", err
	}
	return p.ProcessFile(sourcePath, name)
}

// ProcessFile decodes sourcePath, fits the image inside the panel tile, and
// saves the result as WebP under icons/. Already-fresh tiles are returned
// without reprocessing.
func (p *IconProcessor) ProcessFile(sourcePath, name string) (string, error) {
	iconPath := p.IconPath(name)

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("source image not readable: %w", err)
	}
	if iconInfo, err := os.Stat(iconPath); err == nil && iconInfo.ModTime().After(srcInfo.ModTime()) {
		return iconPath, nil
	}

	img, err := p.decodeImage(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", sourcePath, err)
	}

	fitted := imaging.Fit(img, p.tileSize, p.tileSize, imaging.Lanczos)

	if err := os.MkdirAll(p.iconsDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create icons directory: %w", err)
	}
	if err := webp.Save(iconPath, fitted, &webp.Options{Quality: p.quality}); err != nil {
		return "", fmt.Errorf("failed to save icon tile: %w", err)
	}

	if p.logger != nil {
		bounds := fitted.Bounds()
		p.logger.Media().Info("Processed icon tile",
			"name", name, "width", bounds.Dx(), "height", bounds.Dy(), "path", iconPath)
	}
	return iconPath, nil
}

// findSource looks for stored source art under any supported extension.
func (p *IconProcessor) findSource(name string) (string, error) {
	base := filepath.Join(p.sourcesDir(), sanitizeName(name))
	for _, ext := range []string{".webp", ".png", ".jpg", ".jpeg", ".gif"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no source art found for %s", name)
}

// decodeImage opens and decodes source art. WebP goes through its own
// decoder; everything else is handled by imaging.
func (p *IconProcessor) decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return webp.Decode(file)
	}
	return imaging.Decode(file)
}

// sniffFormat identifies the image format from magic bytes.
func sniffFormat(data []byte) (string, error) {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "png", nil
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpg", nil
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", nil
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "gif", nil
	default:
		return "", fmt.Errorf("unsupported image format")
	}
}

// sanitizeName keeps icon names filesystem-safe. Anything outside
// [a-z0-9-_] collapses to an underscore.
func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "icon"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
