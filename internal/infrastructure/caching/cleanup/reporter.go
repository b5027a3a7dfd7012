// Package cleanup provides ascii reporter
package cleanup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
)

const (
	cyan        = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	cyanBright  = "\033[38;2;97;228;240m"  // Brighter Cyan: #61E4F0
	dimCyan     = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey        = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey     = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success     = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	warning     = "\033[38;2;229;192;123m" // One Dark Yellow: #E5C07B
	errorRed    = "\033[38;2;224;108;117m" // One Dark Red: #E06C75
	white       = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	whiteBright = "\033[38;2;220;225;230m" // Brighter White
	reset       = "\033[0m"
	bold        = "\033[1m"
)

type Reporter struct {
	cache interfaces.Cache
}

func NewReporter(cache interfaces.Cache) *Reporter {
	return &Reporter{cache: cache}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Printf("%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s⚠ WARNING: %s%s%s\n", bold, warning, grey, formattedMsg, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s▶ %s%s%s\n", dimGrey, grey, formattedMsg, reset)
}

// GenerateCacheReport renders the cache population grouped by key prefix
// with freshness marks, plus lifetime counters.
func (r *Reporter) GenerateCacheReport() string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	stats := r.cache.Stats()
	report.WriteString(fmt.Sprintf("%s%s▓ %s | Cache: %s%d entries%s\n",
		bold, dimCyan, timestamp, whiteBright, stats.Entries, reset))

	keys := r.cache.Keys()
	sort.Strings(keys)

	groups := make(map[string][]string)
	for _, key := range keys {
		prefix := key
		if idx := strings.Index(key, ":"); idx > 0 {
			prefix = key[:idx]
		}
		groups[prefix] = append(groups[prefix], key)
	}

	prefixes := make([]string, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var countsLine strings.Builder
	countsLine.WriteString(fmt.Sprintf("%s✦ cached sources:%s", cyanBright, reset))
	for _, prefix := range prefixes {
		var fresh int
		for _, key := range groups[prefix] {
			if r.cache.IsFresh(key) {
				fresh++
			}
		}
		countsLine.WriteString(fmt.Sprintf(" %s%s:%s%d/%d", dimCyan, prefix, cyan, fresh, len(groups[prefix])))
	}
	if len(prefixes) == 0 {
		countsLine.WriteString(fmt.Sprintf(" %s--%s", dimGrey, reset))
	}
	report.WriteString(countsLine.String() + "\n")

	report.WriteString(fmt.Sprintf("%s✦ counters:%s %shits:%s%d %smisses:%s%d %sevictions:%s%d\n",
		cyanBright, reset,
		dimCyan, cyan, stats.Hits,
		dimCyan, cyan, stats.Misses,
		dimCyan, cyan, stats.Evictions))

	return report.String()
}
