package usecase

import (
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/utils"
)

// DefaultThresholdKm - расстояние, в пределах которого светофор считается лежащим на маршруте
const DefaultThresholdKm = 0.035

// MatchOptions - параметры сопоставления
type MatchOptions struct {
	ThresholdKm float64
	// Excluded - id, исключённые пользователем; каталог не меняется
	Excluded map[string]struct{}
}

// NewMatchOptions собирает опции из параметров анализа
func NewMatchOptions(thresholdKm float64, excluded []string) MatchOptions {
	opts := MatchOptions{ThresholdKm: thresholdKm}
	if len(excluded) > 0 {
		opts.Excluded = make(map[string]struct{}, len(excluded))
		for _, id := range excluded {
			opts.Excluded[id] = struct{}{}
		}
	}
	return opts
}

func (o MatchOptions) threshold() float64 {
	if o.ThresholdKm <= 0 {
		return DefaultThresholdKm
	}
	return o.ThresholdKm
}

// MatchSignals возвращает светофоры, лежащие ближе threshold к любому сегменту маршрута.
// Порядок - как в каталоге, каждый id не более одного раза.
//
// Прямоугольник сегмента расширяется на threshold/111 градусов без поправки на широту;
// на высоких широтах это сужает отбор по долготе.
func MatchSignals(route domain.Polyline, signals []domain.SignalFeature, opts MatchOptions) []domain.SignalFeature {
	if len(route) < 2 || len(signals) == 0 {
		return nil
	}

	threshold := opts.threshold()
	margin := threshold / utils.KmPerDegree
	seen := make(map[string]struct{})
	matched := make([]domain.SignalFeature, 0)

	for _, signal := range signals {
		if _, skip := opts.Excluded[signal.ID]; skip {
			continue
		}
		if _, dup := seen[signal.ID]; dup {
			continue
		}
		if !utils.IsFinitePoint(signal.Location) {
			continue
		}
		if nearRoute(route, signal.Location, threshold, margin) {
			seen[signal.ID] = struct{}{}
			matched = append(matched, signal)
		}
	}

	return matched
}

func nearRoute(route domain.Polyline, p domain.GeoPoint, thresholdKm, marginDeg float64) bool {
	for i := 0; i < len(route)-1; i++ {
		a, b := route[i], route[i+1]
		if !utils.SegmentBound(a, b, marginDeg).Contains(p.OrbPoint()) {
			continue
		}
		closest := utils.ClosestPointOnSegment(p, a, b)
		if utils.HaversineDistanceKm(p, closest) < thresholdKm {
			return true
		}
	}
	return false
}

// CountEligible считает светофоры с приоритетом для грузового транспорта
func CountEligible(signals []domain.SignalFeature) int {
	n := 0
	for _, s := range signals {
		if s.IsEligible() {
			n++
		}
	}
	return n
}

// EligibleOnly возвращает только светофоры с грузовым приоритетом
func EligibleOnly(signals []domain.SignalFeature) []domain.SignalFeature {
	out := make([]domain.SignalFeature, 0, len(signals))
	for _, s := range signals {
		if s.IsEligible() {
			out = append(out, s)
		}
	}
	return out
}

// SignalIDs возвращает id светофоров в исходном порядке
func SignalIDs(signals []domain.SignalFeature) []string {
	ids := make([]string, len(signals))
	for i, s := range signals {
		ids[i] = s.ID
	}
	return ids
}
