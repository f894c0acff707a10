package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed savings_default.yaml
var defaultSavingsTables []byte

// ClassValues - значение по весовому классу
type ClassValues struct {
	Light float64 `yaml:"light" validate:"gte=0"`
	Heavy float64 `yaml:"heavy" validate:"gte=0"`
}

// For возвращает значение для класса
func (v ClassValues) For(class domain.VehicleClass) (float64, bool) {
	switch class {
	case domain.VehicleClassLight:
		return v.Light, true
	case domain.VehicleClassHeavy:
		return v.Heavy, true
	}
	return 0, false
}

type Prices struct {
	FuelEURPerLiter ClassValues `yaml:"fuel_eur_per_liter"`
	CO2EURPerTonne  float64     `yaml:"co2_eur_per_tonne" validate:"gte=0"`
	NOxEURPerKg     float64     `yaml:"nox_eur_per_kg" validate:"gte=0"`
}

// ScenarioTable - распределения сценариев и расход для одного класса
type ScenarioTable struct {
	WithoutPriority domain.ScenarioDistribution `yaml:"without_priority"`
	WithPriority    domain.ScenarioDistribution `yaml:"with_priority"`
	Consumption     domain.ScenarioConsumption  `yaml:"consumption_liters"`
}

// SavingsTables - все константы модели экономии. После загрузки не изменяются.
type SavingsTables struct {
	CO2KgPerLiter        float64                               `yaml:"co2_kg_per_liter" validate:"gt=0"`
	NOxGramsPerLiterIdle float64                               `yaml:"nox_grams_per_liter_idle" validate:"gte=0"`
	WorkingDaysPerYear   int                                   `yaml:"working_days_per_year" validate:"gt=0,lte=366"`
	Prices               Prices                                `yaml:"prices"`
	PerAvoidedStop       map[domain.DataSource]ClassValues     `yaml:"savings_per_avoided_stop" validate:"required,dive"`
	Scenarios            map[domain.VehicleClass]ScenarioTable `yaml:"scenarios" validate:"required,dive"`
}

// DefaultSavingsTables разбирает встроенные таблицы
func DefaultSavingsTables() (*SavingsTables, error) {
	return ParseSavingsTables(defaultSavingsTables)
}

// LoadSavingsTables читает таблицы из файла, пустой путь - встроенные
func LoadSavingsTables(path string) (*SavingsTables, error) {
	if path == "" {
		return DefaultSavingsTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrConfiguration.Wrapf("read savings tables: %w", err)
	}
	return ParseSavingsTables(data)
}

// ParseSavingsTables разбирает и проверяет YAML с таблицами
func ParseSavingsTables(data []byte) (*SavingsTables, error) {
	var tables SavingsTables
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tables); err != nil {
		return nil, errors.ErrConfiguration.Wrapf("decode savings tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// Validate проверяет полноту таблиц, суммы вероятностей и порядок источников
func (t *SavingsTables) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return errors.ErrConfiguration.Wrap(err)
	}

	for _, source := range domain.DataSources {
		if _, ok := t.PerAvoidedStop[source]; !ok {
			return errors.ErrConfiguration.Wrapf("no savings for data source %q", source)
		}
	}
	for source := range t.PerAvoidedStop {
		if !source.Valid() {
			return errors.ErrConfiguration.Wrapf("unknown data source %q", source)
		}
	}

	for _, class := range domain.VehicleClasses {
		table, ok := t.Scenarios[class]
		if !ok {
			return errors.ErrConfiguration.Wrapf("no scenario table for class %q", class)
		}
		if err := table.WithoutPriority.Validate(); err != nil {
			return errors.ErrConfiguration.Wrapf("%s without priority: %w", class, err)
		}
		if err := table.WithPriority.Validate(); err != nil {
			return errors.ErrConfiguration.Wrapf("%s with priority: %w", class, err)
		}

		conservative, _ := t.PerAvoidedStop[domain.DataSourceTNO].For(class)
		field, _ := t.PerAvoidedStop[domain.DataSourceFieldTrial].For(class)
		for _, source := range domain.DataSources {
			v, _ := t.PerAvoidedStop[source].For(class)
			if v < conservative || v > field {
				return errors.ErrConfiguration.Wrapf(
					"%s/%s saving %.3f outside bandwidth [%.3f, %.3f]", source, class, v, conservative, field)
			}
		}
	}
	for class := range t.Scenarios {
		if !class.Valid() {
			return errors.ErrConfiguration.Wrapf("unknown vehicle class %q", class)
		}
	}

	return nil
}

// SavingPerAvoidedStop возвращает литры на избегнутый останов
func (t *SavingsTables) SavingPerAvoidedStop(source domain.DataSource, class domain.VehicleClass) (float64, error) {
	values, ok := t.PerAvoidedStop[source]
	if !ok {
		return 0, errors.ErrConfiguration.Wrapf("unknown data source %q", source)
	}
	v, ok := values.For(class)
	if !ok {
		return 0, errors.ErrConfiguration.Wrapf("unknown vehicle class %q", class)
	}
	return v, nil
}

// Scenario возвращает таблицу сценариев для класса
func (t *SavingsTables) Scenario(class domain.VehicleClass) (ScenarioTable, error) {
	table, ok := t.Scenarios[class]
	if !ok {
		return ScenarioTable{}, errors.ErrConfiguration.Wrapf("unknown vehicle class %q", class)
	}
	return table, nil
}

func (t *SavingsTables) String() string {
	return fmt.Sprintf("savings tables: %d sources, %d classes, %d working days",
		len(t.PerAvoidedStop), len(t.Scenarios), t.WorkingDaysPerYear)
}
