package domain

// Классы приоритета в том виде, в каком их отдаёт каталог
const (
	PriorityEmergency       = "emergency"
	PriorityRoadOperator    = "road_operator"
	PriorityPublicTransport = "public_transport"
	PriorityLogistics       = "logistics"
	PriorityAgriculture     = "agriculture"
)

// PriorityClasses - все классы приоритета в порядке отображения
var PriorityClasses = []string{
	PriorityEmergency,
	PriorityRoadOperator,
	PriorityPublicTransport,
	PriorityLogistics,
	PriorityAgriculture,
}

// PriorityFlags - флаги категорий приоритета светофора
type PriorityFlags struct {
	Emergency       bool `json:"has_emergency" db:"has_emergency"`
	RoadOperator    bool `json:"has_road_operator" db:"has_road_operator"`
	PublicTransport bool `json:"has_public_transport" db:"has_public_transport"`
	Logistics       bool `json:"has_logistics" db:"has_logistics"`
	Agriculture     bool `json:"has_agriculture" db:"has_agriculture"`
}

// List возвращает названия активных категорий
func (f PriorityFlags) List() []string {
	list := make([]string, 0, len(PriorityClasses))
	for _, name := range PriorityClasses {
		if f.Has(name) {
			list = append(list, name)
		}
	}
	return list
}

// Has проверяет категорию по имени
func (f PriorityFlags) Has(name string) bool {
	switch name {
	case PriorityEmergency:
		return f.Emergency
	case PriorityRoadOperator:
		return f.RoadOperator
	case PriorityPublicTransport:
		return f.PublicTransport
	case PriorityLogistics:
		return f.Logistics
	case PriorityAgriculture:
		return f.Agriculture
	}
	return false
}

// Set включает категорию по имени. Неизвестные имена игнорируются.
func (f *PriorityFlags) Set(name string) {
	switch name {
	case PriorityEmergency:
		f.Emergency = true
	case PriorityRoadOperator:
		f.RoadOperator = true
	case PriorityPublicTransport:
		f.PublicTransport = true
	case PriorityLogistics:
		f.Logistics = true
	case PriorityAgriculture:
		f.Agriculture = true
	}
}

// SignalFeature - светофор (iVRI) из каталога. После загрузки не изменяется.
type SignalFeature struct {
	ID                string        `json:"id" db:"id"`
	Name              string        `json:"name" db:"name"`
	Identifier        string        `json:"identifier,omitempty" db:"identifier"`
	Location          GeoPoint      `json:"location"`
	RoadRegulatorID   int64         `json:"road_regulator_id,omitempty" db:"road_regulator_id"`
	RoadRegulatorName string        `json:"road_regulator_name,omitempty" db:"road_regulator_name"`
	TLCOrganization   string        `json:"tlc_organization,omitempty" db:"tlc_organization"`
	ITSOrganization   string        `json:"its_organization,omitempty" db:"its_organization"`
	RISOrganization   string        `json:"ris_organization,omitempty" db:"ris_organization"`
	Priorities        PriorityFlags `json:"priorities"`
}

// IsEligible - светофор даёт приоритет грузовому транспорту
func (s SignalFeature) IsEligible() bool {
	return s.Priorities.Logistics
}
