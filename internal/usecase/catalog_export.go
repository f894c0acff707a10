package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/route-impact/internal/domain"
)

// AuthorityEntry - строка списка дорожных управлений
type AuthorityEntry struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CatalogSummary - сводка каталога для внешних потребителей
type CatalogSummary struct {
	GeneratedAt       time.Time           `json:"generated_at"`
	Source            string              `json:"source"`
	Total             int                 `json:"total_traffic_lights"`
	Bounds            *domain.BoundingBox `json:"bounds,omitempty"`
	Authorities       []string            `json:"authorities"`
	TLCOrganizations  []string            `json:"tlc_organizations"`
	ByAuthority       map[string]int      `json:"by_authority"`
	ByTLCOrganization map[string]int      `json:"by_tlc_organization"`
	ByPriority        map[string]int      `json:"priority_stats"`
}

// AuthoritySlug: "Gemeente 's-Hertogenbosch" -> "gemeente-s-hertogenbosch"
func AuthoritySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, "'", "")
	return strings.Join(strings.Fields(slug), "-")
}

// AuthorityList - управления по убыванию числа светофоров, при равенстве по имени
func AuthorityList(stats *domain.CatalogStats) []AuthorityEntry {
	list := make([]AuthorityEntry, 0, len(stats.ByAuthority))
	for name, count := range stats.ByAuthority {
		list = append(list, AuthorityEntry{Name: name, Slug: AuthoritySlug(name), Count: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func NewCatalogSummary(stats *domain.CatalogStats, now time.Time) CatalogSummary {
	return CatalogSummary{
		GeneratedAt:       now,
		Source:            stats.Source,
		Total:             stats.Total,
		Bounds:            stats.Bounds,
		Authorities:       sortedKeys(stats.ByAuthority),
		TLCOrganizations:  sortedKeys(stats.ByTLCOrganization),
		ByAuthority:       stats.ByAuthority,
		ByTLCOrganization: stats.ByTLCOrganization,
		ByPriority:        stats.ByPriority,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
