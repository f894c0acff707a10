package usecase

import (
	"testing"

	"github.com/route-impact/internal/domain"
	"github.com/stretchr/testify/assert"
)

func signalAt(id string, lat, lng float64, logistics bool) domain.SignalFeature {
	return domain.SignalFeature{
		ID:         id,
		Name:       "iVRI " + id,
		Location:   domain.GeoPoint{Lat: lat, Lng: lng},
		Priorities: domain.PriorityFlags{Logistics: logistics},
	}
}

func TestMatchSignals_ThreePointPolyline(t *testing.T) {
	route := domain.Polyline{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 2, Lng: 0}}
	signals := []domain.SignalFeature{signalAt("near", 0.5, 0.0001, true)}

	matched := MatchSignals(route, signals, MatchOptions{ThresholdKm: 0.02})

	assert.Len(t, matched, 1)
	assert.Equal(t, "near", matched[0].ID)
}

func TestMatchSignals_Threshold(t *testing.T) {
	// на экваторе 1 градус долготы ~ 111.195 км
	const kmPerDegLng = 111.195
	threshold := 0.035
	route := domain.Polyline{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}}

	tests := []struct {
		name    string
		offset  float64
		matched bool
	}{
		{"half threshold", threshold / 2, true},
		{"just inside", threshold * 0.9, true},
		{"double threshold", threshold * 2, false},
		{"far away", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := signalAt("s", 0.5, tt.offset/kmPerDegLng, true)
			matched := MatchSignals(route, []domain.SignalFeature{s}, MatchOptions{ThresholdKm: threshold})
			assert.Equal(t, tt.matched, len(matched) == 1)
		})
	}
}

func TestMatchSignals_EdgeCases(t *testing.T) {
	signals := []domain.SignalFeature{
		signalAt("a", 0.5, 0, true),
		signalAt("b", 1.5, 0, false),
		signalAt("a", 0.5, 0, true),
	}
	route := domain.Polyline{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 2, Lng: 0}}

	t.Run("single point route", func(t *testing.T) {
		assert.Empty(t, MatchSignals(domain.Polyline{{Lat: 0.5, Lng: 0}}, signals, MatchOptions{}))
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Empty(t, MatchSignals(route, nil, MatchOptions{}))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		matched := MatchSignals(route, signals, MatchOptions{})
		assert.Equal(t, []string{"a", "b"}, SignalIDs(matched))
	})

	t.Run("excluded ids suppressed", func(t *testing.T) {
		matched := MatchSignals(route, signals, NewMatchOptions(0, []string{"a"}))
		assert.Equal(t, []string{"b"}, SignalIDs(matched))
		assert.Len(t, signals, 3)
	})

	t.Run("degenerate segment", func(t *testing.T) {
		line := domain.Polyline{{Lat: 0.5, Lng: 0}, {Lat: 0.5, Lng: 0}}
		matched := MatchSignals(line, signals, MatchOptions{})
		assert.Equal(t, []string{"a"}, SignalIDs(matched))
	})
}

func TestCountEligible(t *testing.T) {
	signals := []domain.SignalFeature{
		signalAt("a", 0, 0, true),
		signalAt("b", 0, 0, false),
		signalAt("c", 0, 0, true),
	}

	assert.Equal(t, 2, CountEligible(signals))
	assert.Equal(t, []string{"a", "c"}, SignalIDs(EligibleOnly(signals)))
	assert.Equal(t, 0, CountEligible(nil))
}
