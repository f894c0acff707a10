package domain

import (
	"fmt"
	"math"
)

// DataSource - поставщик сценарных данных об экономии
type DataSource string

const (
	// DataSourceTNO - вероятностная модель, самая консервативная; владеет полной таблицей сценариев
	DataSourceTNO DataSource = "tno"
	// DataSourceCEDelft - вероятностная модель со средними значениями
	DataSourceCEDelft DataSource = "ce_delft"
	// DataSourceFieldTrial - полевые измерения, верхняя граница
	DataSourceFieldTrial DataSource = "field_trial"
)

// DataSources - источники от самого консервативного к самому оптимистичному
var DataSources = []DataSource{DataSourceTNO, DataSourceCEDelft, DataSourceFieldTrial}

// Valid проверяет, что источник входит в перечисление
func (s DataSource) Valid() bool {
	switch s {
	case DataSourceTNO, DataSourceCEDelft, DataSourceFieldTrial:
		return true
	}
	return false
}

// Scenario - профиль скорости при проезде светофора
type Scenario string

const (
	ScenarioNoStop   Scenario = "no_stop"
	ScenarioSlowDown Scenario = "slow_down"
	ScenarioStop     Scenario = "stop"
)

// ProbabilityTolerance - допуск суммы вероятностей распределения
const ProbabilityTolerance = 1e-9

// ScenarioDistribution - взаимоисключающие вероятности сценариев, сумма = 1
type ScenarioDistribution struct {
	NoStop   float64 `json:"no_stop" yaml:"no_stop" validate:"gte=0,lte=1"`
	SlowDown float64 `json:"slow_down" yaml:"slow_down" validate:"gte=0,lte=1"`
	Stop     float64 `json:"stop" yaml:"stop" validate:"gte=0,lte=1"`
}

// Sum возвращает сумму вероятностей
func (d ScenarioDistribution) Sum() float64 {
	return d.NoStop + d.SlowDown + d.Stop
}

// Validate проверяет, что распределение полное
func (d ScenarioDistribution) Validate() error {
	if d.NoStop < 0 || d.SlowDown < 0 || d.Stop < 0 {
		return fmt.Errorf("negative probability in %+v", d)
	}
	if math.Abs(d.Sum()-1) > ProbabilityTolerance {
		return fmt.Errorf("probabilities sum to %.12f, want 1", d.Sum())
	}
	return nil
}

// Pick выбирает сценарий по значению draw из [0,1)
func (d ScenarioDistribution) Pick(draw float64) Scenario {
	switch {
	case draw < d.NoStop:
		return ScenarioNoStop
	case draw < d.NoStop+d.SlowDown:
		return ScenarioSlowDown
	default:
		return ScenarioStop
	}
}

// ScenarioConsumption - дополнительный расход топлива (л) по сценариям
type ScenarioConsumption struct {
	NoStop   float64 `json:"no_stop" yaml:"no_stop" validate:"gte=0"`
	SlowDown float64 `json:"slow_down" yaml:"slow_down" validate:"gte=0"`
	Stop     float64 `json:"stop" yaml:"stop" validate:"gte=0"`
}

// For возвращает расход для сценария
func (c ScenarioConsumption) For(s Scenario) float64 {
	switch s {
	case ScenarioNoStop:
		return c.NoStop
	case ScenarioSlowDown:
		return c.SlowDown
	default:
		return c.Stop
	}
}

// MonetarySavings - выгода перевозчика и общественная выгода раздельно
type MonetarySavings struct {
	BusinessEUR float64 `json:"business_eur"`
	SocietalEUR float64 `json:"societal_eur"`
}

// Total - сумма обеих частей
func (m MonetarySavings) Total() float64 {
	return m.BusinessEUR + m.SocietalEUR
}

// SavingsFigures - топливо, выбросы и деньги за период
type SavingsFigures struct {
	FuelLiters float64         `json:"fuel_liters"`
	CO2Kg      float64         `json:"co2_kg"`
	NOxGrams   float64         `json:"nox_grams"`
	Money      MonetarySavings `json:"money"`
}

// Add суммирует показатели
func (f SavingsFigures) Add(o SavingsFigures) SavingsFigures {
	return SavingsFigures{
		FuelLiters: f.FuelLiters + o.FuelLiters,
		CO2Kg:      f.CO2Kg + o.CO2Kg,
		NOxGrams:   f.NOxGrams + o.NOxGrams,
		Money: MonetarySavings{
			BusinessEUR: f.Money.BusinessEUR + o.Money.BusinessEUR,
			SocietalEUR: f.Money.SocietalEUR + o.Money.SocietalEUR,
		},
	}
}

// Savings - экономия для одной поездки и в пересчёте на год
type Savings struct {
	Source          DataSource     `json:"source,omitempty"`
	VehicleClass    VehicleClass   `json:"vehicle_class"`
	EligibleSignals int            `json:"eligible_signals"`
	TripsPerDay     float64        `json:"trips_per_day"`
	PerTrip         SavingsFigures `json:"per_trip"`
	Annual          SavingsFigures `json:"annual"`
}

// SavingsBandwidth - диапазон [min,max] по источникам данных
type SavingsBandwidth struct {
	Min       Savings                `json:"min"`
	Max       Savings                `json:"max"`
	PerSource map[DataSource]Savings `json:"per_source"`
}

// SignalScenario - назначенные сценарии для одного светофора
type SignalScenario struct {
	SignalID          string   `json:"signal_id"`
	Index             int      `json:"index"`
	WithoutPriority   Scenario `json:"without_priority"`
	WithPriority      Scenario `json:"with_priority"`
	FuelSavingsLiters float64  `json:"fuel_savings_liters"`
}

// AdvancedSavings - результат посветофорной модели
type AdvancedSavings struct {
	Savings
	Signals []SignalScenario `json:"signals"`
}
