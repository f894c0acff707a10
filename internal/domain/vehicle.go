package domain

import (
	"fmt"
	"strings"
)

// VehicleClass - весовой класс транспортного средства
type VehicleClass string

const (
	VehicleClassLight VehicleClass = "light"
	VehicleClassHeavy VehicleClass = "heavy"
)

// VehicleClasses - все поддерживаемые классы
var VehicleClasses = []VehicleClass{VehicleClassLight, VehicleClassHeavy}

// Valid проверяет, что класс входит в перечисление
func (c VehicleClass) Valid() bool {
	return c == VehicleClassLight || c == VehicleClassHeavy
}

// vehicleTypeSynonyms - свободный текст типа ТС из загрузок в класс
var vehicleTypeSynonyms = map[string]VehicleClass{
	"light":       VehicleClassLight,
	"licht":       VehicleClassLight,
	"bestel":      VehicleClassLight,
	"bestelbus":   VehicleClassLight,
	"bestelwagen": VehicleClassLight,
	"van":         VehicleClassLight,
	"n1":          VehicleClassLight,
	"heavy":       VehicleClassHeavy,
	"zwaar":       VehicleClassHeavy,
	"truck":       VehicleClassHeavy,
	"vrachtwagen": VehicleClassHeavy,
	"trekker":     VehicleClassHeavy,
	"vrachtauto":  VehicleClassHeavy,
	"lzv":         VehicleClassHeavy,
	"n2":          VehicleClassHeavy,
	"n3":          VehicleClassHeavy,
	"hgv":         VehicleClassHeavy,
	"bakwagen":    VehicleClassHeavy,
	"combinatie":  VehicleClassHeavy,
	"trailer":     VehicleClassHeavy,
	"oplegger":    VehicleClassHeavy,
}

// ParseVehicleClass разбирает строгое значение класса (light|heavy)
func ParseVehicleClass(s string) (VehicleClass, error) {
	c := VehicleClass(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown vehicle class %q", s)
	}
	return c, nil
}

// VehicleClassFromText пытается распознать класс по свободному тексту из файла
func VehicleClassFromText(s string) (VehicleClass, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", false
	}
	if c, ok := vehicleTypeSynonyms[key]; ok {
		return c, true
	}
	// самое длинное совпадение выигрывает: "lichte vrachtwagen" -> heavy
	var (
		best    VehicleClass
		bestLen int
	)
	for synonym, c := range vehicleTypeSynonyms {
		if len(synonym) > 3 && len(synonym) > bestLen && strings.Contains(key, synonym) {
			best, bestLen = c, len(synonym)
		}
	}
	if bestLen > 0 {
		return best, true
	}
	return "", false
}

// VehicleRecord - запись из реестра транспортных средств (RDW)
type VehicleRecord struct {
	Plate                string `json:"plate"`
	EUCategory           string `json:"eu_category,omitempty"`
	VehicleType          string `json:"vehicle_type,omitempty"`
	Brand                string `json:"brand,omitempty"`
	MaxCombinationMassKg int    `json:"max_combination_mass_kg,omitempty"`
	MaxMassKg            int    `json:"max_mass_kg,omitempty"`
	EmptyMassKg          int    `json:"empty_mass_kg,omitempty"`
}

// VehicleClassification - результат классификации по номеру
type VehicleClassification struct {
	Plate        string         `json:"plate"`
	Class        VehicleClass   `json:"class"`
	FromRegistry bool           `json:"from_registry"`
	Record       *VehicleRecord `json:"record,omitempty"`
}
