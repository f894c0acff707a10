package usecase

import (
	"fmt"
	"time"

	"github.com/route-impact/internal/domain"
)

// StatsHistory - понедельная история статистики каталога
type StatsHistory struct {
	Metadata HistoryMetadata `json:"metadata"`
	Weeks    []WeekEntry     `json:"weeks"`
}

type HistoryMetadata struct {
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	TotalWeeks  int       `json:"total_weeks"`
}

// WeekEntry - снимок статистики за ISO-неделю
type WeekEntry struct {
	Week      string              `json:"week"`
	Date      string              `json:"date"`
	Timestamp time.Time           `json:"timestamp"`
	Stats     domain.CatalogStats `json:"stats"`
	Changes   WeekChanges         `json:"changes"`
}

type WeekChanges struct {
	TotalChange      int                        `json:"total_change"`
	IsFirstWeek      bool                       `json:"is_first_week"`
	AuthorityChanges map[string]AuthorityChange `json:"authority_changes,omitempty"`
}

type AuthorityChange struct {
	Previous int `json:"previous"`
	Current  int `json:"current"`
	Change   int `json:"change"`
}

// NewStatsHistory создает пустую историю
func NewStatsHistory(source string, now time.Time) *StatsHistory {
	return &StatsHistory{
		Metadata: HistoryMetadata{
			CreatedAt:   now,
			Description: "Weekly statistics history for traffic signals",
			Source:      source,
		},
		Weeks: []WeekEntry{},
	}
}

// WeekKey - ISO-неделя вида 2024-W07
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Record добавляет или заменяет запись текущей недели.
// Изменения считаются относительно последней записи другой недели.
func (h *StatsHistory) Record(stats *domain.CatalogStats, now time.Time) WeekEntry {
	key := WeekKey(now)

	var previous *WeekEntry
	existing := -1
	for i := range h.Weeks {
		if h.Weeks[i].Week == key {
			existing = i
			continue
		}
		previous = &h.Weeks[i]
	}

	entry := WeekEntry{
		Week:      key,
		Date:      now.Format("2006-01-02"),
		Timestamp: now,
		Stats:     *stats,
		Changes:   weekChanges(stats, previous),
	}

	if existing >= 0 {
		h.Weeks[existing] = entry
	} else {
		h.Weeks = append(h.Weeks, entry)
	}
	h.Metadata.LastUpdated = now
	h.Metadata.TotalWeeks = len(h.Weeks)
	return entry
}

func weekChanges(current *domain.CatalogStats, previous *WeekEntry) WeekChanges {
	if previous == nil {
		return WeekChanges{IsFirstWeek: true}
	}

	changes := WeekChanges{
		TotalChange:      current.Total - previous.Stats.Total,
		AuthorityChanges: make(map[string]AuthorityChange),
	}
	seen := make(map[string]struct{}, len(current.ByAuthority))
	for name, count := range current.ByAuthority {
		seen[name] = struct{}{}
		if prev := previous.Stats.ByAuthority[name]; prev != count {
			changes.AuthorityChanges[name] = AuthorityChange{Previous: prev, Current: count, Change: count - prev}
		}
	}
	for name, prev := range previous.Stats.ByAuthority {
		if _, ok := seen[name]; !ok && prev != 0 {
			changes.AuthorityChanges[name] = AuthorityChange{Previous: prev, Change: -prev}
		}
	}
	return changes
}
