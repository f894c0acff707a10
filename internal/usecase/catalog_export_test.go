package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/usecase"
)

func exportStats() *domain.CatalogStats {
	return &domain.CatalogStats{
		Total: 7,
		ByAuthority: map[string]int{
			"Gemeente 's-Hertogenbosch": 2,
			"Gemeente Rotterdam":        4,
			"Provincie Utrecht":         1,
		},
		ByTLCOrganization: map[string]int{"Vialis": 5, "Swarco": 2},
		ByPriority:        map[string]int{"logistics": 3},
		Bounds:            &domain.BoundingBox{MinLat: 51.6, MinLng: 4.4, MaxLat: 52.1, MaxLng: 5.3},
		Source:            "udap",
	}
}

func TestAuthoritySlug(t *testing.T) {
	assert.Equal(t, "gemeente-s-hertogenbosch", usecase.AuthoritySlug("Gemeente 's-Hertogenbosch"))
	assert.Equal(t, "provincie-noord-holland", usecase.AuthoritySlug(" Provincie  Noord-Holland "))
}

func TestAuthorityList(t *testing.T) {
	list := usecase.AuthorityList(exportStats())
	require.Len(t, list, 3)
	assert.Equal(t, usecase.AuthorityEntry{Name: "Gemeente Rotterdam", Slug: "gemeente-rotterdam", Count: 4}, list[0])
	assert.Equal(t, "gemeente-s-hertogenbosch", list[1].Slug)
	assert.Equal(t, 1, list[2].Count)
}

func TestNewCatalogSummary(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	summary := usecase.NewCatalogSummary(exportStats(), now)

	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, []string{"Gemeente 's-Hertogenbosch", "Gemeente Rotterdam", "Provincie Utrecht"}, summary.Authorities)
	assert.Equal(t, []string{"Swarco", "Vialis"}, summary.TLCOrganizations)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2026-03-02T08:00:00Z", raw["generated_at"])
	assert.EqualValues(t, 7, raw["total_traffic_lights"])
	assert.Contains(t, raw, "bounds")
	assert.Contains(t, raw, "priority_stats")
}
