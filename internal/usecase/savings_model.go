package usecase

import (
	"math"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
)

// withPrioritySeedOffset разводит розыгрыши "без приоритета" и "с приоритетом"
const withPrioritySeedOffset = 1000

// SavingsModel считает экономию по числу светофоров с грузовым приоритетом.
// Чистые функции над неизменяемыми таблицами, безопасен для конкурентного использования.
type SavingsModel struct {
	tables *config.SavingsTables
}

// NewSavingsModel создает новый экземпляр SavingsModel
func NewSavingsModel(tables *config.SavingsTables) *SavingsModel {
	return &SavingsModel{tables: tables}
}

// Tables возвращает таблицы констант
func (m *SavingsModel) Tables() *config.SavingsTables {
	return m.tables
}

// Simple - экономия по одному источнику: литры на избегнутый останов × число светофоров
func (m *SavingsModel) Simple(eligible int, class domain.VehicleClass, source domain.DataSource, tripsPerDay float64) (*domain.Savings, error) {
	perStop, err := m.tables.SavingPerAvoidedStop(source, class)
	if err != nil {
		return nil, err
	}
	if eligible < 0 {
		eligible = 0
	}

	perTrip, err := m.figures(float64(eligible)*perStop, class)
	if err != nil {
		return nil, err
	}
	tripsPerDay = normalizeTripsPerDay(tripsPerDay)

	return &domain.Savings{
		Source:          source,
		VehicleClass:    class,
		EligibleSignals: eligible,
		TripsPerDay:     tripsPerDay,
		PerTrip:         perTrip,
		Annual:          m.annualize(perTrip, tripsPerDay),
	}, nil
}

// Bandwidth - диапазон от консервативного источника до полевых измерений
func (m *SavingsModel) Bandwidth(eligible int, class domain.VehicleClass, tripsPerDay float64) (*domain.SavingsBandwidth, error) {
	bw := &domain.SavingsBandwidth{
		PerSource: make(map[domain.DataSource]domain.Savings, len(domain.DataSources)),
	}
	for _, source := range domain.DataSources {
		s, err := m.Simple(eligible, class, source, tripsPerDay)
		if err != nil {
			return nil, err
		}
		bw.PerSource[source] = *s
	}
	bw.Min = bw.PerSource[domain.DataSourceTNO]
	bw.Max = bw.PerSource[domain.DataSourceFieldTrial]
	return bw, nil
}

// Advanced - посветофорная модель: каждому светофору детерминированно назначаются
// сценарии без приоритета и с приоритетом, экономия - разница расхода.
// Отрицательная экономия по отдельному светофору сохраняется.
func (m *SavingsModel) Advanced(signals []domain.SignalFeature, class domain.VehicleClass, tripsPerDay float64) (*domain.AdvancedSavings, error) {
	table, err := m.tables.Scenario(class)
	if err != nil {
		return nil, err
	}

	eligible := EligibleOnly(signals)
	details := make([]domain.SignalScenario, 0, len(eligible))
	var fuel float64
	for i, s := range eligible {
		without := AssignScenario(s.ID, i, 0, table.WithoutPriority)
		with := AssignScenario(s.ID, i, withPrioritySeedOffset, table.WithPriority)
		saving := table.Consumption.For(without) - table.Consumption.For(with)
		fuel += saving
		details = append(details, domain.SignalScenario{
			SignalID:          s.ID,
			Index:             i,
			WithoutPriority:   without,
			WithPriority:      with,
			FuelSavingsLiters: saving,
		})
	}

	perTrip, err := m.figures(fuel, class)
	if err != nil {
		return nil, err
	}
	tripsPerDay = normalizeTripsPerDay(tripsPerDay)

	return &domain.AdvancedSavings{
		Savings: domain.Savings{
			Source:          domain.DataSourceTNO,
			VehicleClass:    class,
			EligibleSignals: len(eligible),
			TripsPerDay:     tripsPerDay,
			PerTrip:         perTrip,
			Annual:          m.annualize(perTrip, tripsPerDay),
		},
		Signals: details,
	}, nil
}

// AssignScenario - чистая детерминированная функция: одинаковые входы дают одинаковый сценарий
func AssignScenario(signalID string, index, offset int, dist domain.ScenarioDistribution) domain.Scenario {
	return dist.Pick(SeededDraw(ScenarioSeed(signalID, index) + offset))
}

// ScenarioSeed - сумма кодов символов id плюс позиция светофора
func ScenarioSeed(signalID string, index int) int {
	seed := index
	for _, r := range signalID {
		seed += int(r)
	}
	return seed
}

// SeededDraw отображает seed в [0,1) через дробную часть sin(seed)×10000
func SeededDraw(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	frac := x - math.Floor(x)
	if frac >= 1 {
		return 0
	}
	return frac
}

// figures выводит CO2, NOx и деньги из литров топлива
func (m *SavingsModel) figures(fuelLiters float64, class domain.VehicleClass) (domain.SavingsFigures, error) {
	fuelPrice, ok := m.tables.Prices.FuelEURPerLiter.For(class)
	if !ok {
		return domain.SavingsFigures{}, errors.ErrConfiguration.Wrapf("unknown vehicle class %q", class)
	}

	co2Kg := fuelLiters * m.tables.CO2KgPerLiter
	noxGrams := fuelLiters * m.tables.NOxGramsPerLiterIdle

	return domain.SavingsFigures{
		FuelLiters: fuelLiters,
		CO2Kg:      co2Kg,
		NOxGrams:   noxGrams,
		Money: domain.MonetarySavings{
			BusinessEUR: fuelLiters * fuelPrice,
			SocietalEUR: co2Kg/1000*m.tables.Prices.CO2EURPerTonne + noxGrams/1000*m.tables.Prices.NOxEURPerKg,
		},
	}, nil
}

func (m *SavingsModel) annualize(perTrip domain.SavingsFigures, tripsPerDay float64) domain.SavingsFigures {
	factor := tripsPerDay * float64(m.tables.WorkingDaysPerYear)
	return domain.SavingsFigures{
		FuelLiters: perTrip.FuelLiters * factor,
		CO2Kg:      perTrip.CO2Kg * factor,
		NOxGrams:   perTrip.NOxGrams * factor,
		Money: domain.MonetarySavings{
			BusinessEUR: perTrip.Money.BusinessEUR * factor,
			SocietalEUR: perTrip.Money.SocietalEUR * factor,
		},
	}
}

func normalizeTripsPerDay(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.DefaultTripsPerDay
	}
	return v
}
