package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ScheduleEntry is one display mode as declared in schedule.json.
type ScheduleEntry struct {
	ID                   string `json:"id"`
	Category             string `json:"category"`
	Enabled              bool   `json:"enabled"`
	LivePriority         bool   `json:"livePriority,omitempty"`
	FixedDurationSeconds int    `json:"fixedDurationSeconds,omitempty"`
}

// ScheduleFile is the on-disk rotation schedule document.
type ScheduleFile struct {
	Modes []ScheduleEntry `json:"modes"`
}

// DefaultSchedule is used when no schedule.json exists yet. One sports slot
// per configured league so each scoreboard can preempt independently.
func DefaultSchedule() []ScheduleEntry {
	entries := []ScheduleEntry{
		{ID: "clock", Category: "ambient", Enabled: true, FixedDurationSeconds: 15},
		{ID: "weather", Category: "recent", Enabled: true, FixedDurationSeconds: 30},
		{ID: "stocks", Category: "recent", Enabled: true, FixedDurationSeconds: 20},
	}
	for _, league := range strings.Split(SportLeagues, ",") {
		league = strings.ToLower(strings.TrimSpace(league))
		if league == "" {
			continue
		}
		entries = append(entries, ScheduleEntry{
			ID:                   "sports_" + league,
			Category:             "live",
			Enabled:              true,
			LivePriority:         true,
			FixedDurationSeconds: 30,
		})
	}
	return append(entries, ScheduleEntry{ID: "news", Category: "ambient", Enabled: true})
}

// LoadSchedule reads the schedule file, falling back to the built-in
// default rotation when the file does not exist.
func LoadSchedule() ([]ScheduleEntry, error) {
	data, err := os.ReadFile(SchedulePath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSchedule(), nil
		}
		return nil, fmt.Errorf("failed to read schedule file %s: %w", SchedulePath, err)
	}

	var file ScheduleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", SchedulePath, err)
	}
	if len(file.Modes) == 0 {
		return DefaultSchedule(), nil
	}
	return file.Modes, nil
}

// SaveSchedule persists a schedule document so API edits survive restarts.
func SaveSchedule(entries []ScheduleEntry) error {
	data, err := json.MarshalIndent(ScheduleFile{Modes: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	if err := os.WriteFile(SchedulePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write schedule file %s: %w", SchedulePath, err)
	}
	return nil
}
