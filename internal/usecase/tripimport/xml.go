package tripimport

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
)

type xmlDocument struct {
	Vehicles []xmlVehicle `xml:"vehicle"`
	Nested   []xmlVehicle `xml:"vehicles>vehicle"`
}

type xmlVehicle struct {
	RegistrationAttr string       `xml:"registration,attr"`
	Registration     string       `xml:"registration"`
	TypeAttr         string       `xml:"type,attr"`
	Type             string       `xml:"type"`
	Journeys         []xmlJourney `xml:"journey"`
}

type xmlJourney struct {
	StartTime string        `xml:"startTime"`
	Start     xmlLocation   `xml:"startLocation"`
	End       xmlLocation   `xml:"endLocation"`
	Shipments []xmlShipment `xml:"shipment"`
}

type xmlLocation struct {
	Name       string `xml:"name"`
	PostalCode string `xml:"postalCode"`
	Latitude   string `xml:"latitude"`
	Longitude  string `xml:"longitude"`
}

type xmlShipment struct {
	GrossWeight string `xml:"grossWeight"`
}

// ParseXML разбирает документ vehicle -> journey -> startLocation/endLocation -> shipment.
// Каждая поездка - одна строка с частотой 1. Битый XML - ошибка всего файла.
func ParseXML(r io.Reader) (*ParseResult, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.ErrInputParse.Wrap(err)
	}

	result := &ParseResult{
		Rows:     make([]domain.TripRow, 0),
		Detected: domain.DetectedFields{Format: domain.InputFormatXML},
	}

	for _, v := range append(doc.Vehicles, doc.Nested...) {
		plate := firstNonEmpty(v.Registration, v.RegistrationAttr)
		vehicleType := firstNonEmpty(v.Type, v.TypeAttr)
		for _, j := range v.Journeys {
			var weight float64
			for _, s := range j.Shipments {
				weight += parseNumber(strings.TrimSpace(s.GrossWeight))
			}
			result.add(domain.TripRow{
				Origin:        j.Start.endpoint(),
				Destination:   j.End.endpoint(),
				VehicleType:   vehicleType,
				LicensePlate:  plate,
				TripsPerDay:   domain.DefaultTripsPerDay,
				Timestamp:     parseTimestamp(strings.TrimSpace(j.StartTime)),
				TotalWeightKg: weight,
			})
		}
	}
	return result, nil
}

// endpoint выбирает лучшее представление: название с индексом, название, индекс, координаты
func (l xmlLocation) endpoint() domain.TripEndpoint {
	name := strings.TrimSpace(l.Name)
	pc := normalizePostcode(l.PostalCode)

	switch {
	case name != "" && pc != "":
		return domain.TripEndpoint{Address: name + ", " + pc}
	case name != "":
		return domain.TripEndpoint{Address: name}
	case pc != "":
		return domain.TripEndpoint{PostalCode: pc}
	}
	if p, ok := parsePoint(strings.TrimSpace(l.Latitude), strings.TrimSpace(l.Longitude)); ok {
		return domain.TripEndpoint{Location: &p}
	}
	return domain.TripEndpoint{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
