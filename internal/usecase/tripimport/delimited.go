package tripimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/pkg/utils"
)

// Ключи распознанных колонок
const (
	colOrigin         = "origin"
	colOriginPostcode = "origin_postcode"
	colOriginLat      = "origin_lat"
	colOriginLng      = "origin_lng"
	colDest           = "destination"
	colDestPostcode   = "destination_postcode"
	colDestLat        = "destination_lat"
	colDestLng        = "destination_lng"
	colVehicle        = "vehicle_type"
	colTrips          = "trips_per_day"
	colPlate          = "license_plate"
	colTimestamp      = "timestamp"
	colWeight         = "total_weight_kg"
)

// postcodePattern - голландский индекс: 4 цифры и 2 буквы
var postcodePattern = regexp.MustCompile(`^\d{4}\s?[A-Za-z]{2}$`)

var (
	originWords      = []string{"origin", "orig", "herkomst", "van", "from", "start", "vertrek", "laadadres", "laden", "pickup"}
	destinationWords = []string{"destination", "dest", "bestemming", "naar", "to", "end", "eind", "aankomst", "losadres", "lossen", "dropoff", "delivery"}
	postcodeWords    = []string{"postcode", "postal", "zip", "pc", "postcod"}
	latWords         = []string{"lat", "latitude", "breedtegraad"}
	lngWords         = []string{"lng", "lon", "long", "longitude", "lengtegraad"}
	plateWords       = []string{"kenteken", "license", "licence", "plate", "registration", "registratie"}
	vehicleWords     = []string{"vehicle", "voertuig", "voertuigtype", "type", "class", "klasse"}
	tripsWords       = []string{"trips", "ritten", "frequency", "frequentie", "rides", "aantal"}
	timestampWords   = []string{"timestamp", "datum", "date", "datetime", "tijd", "time"}
	weightWords      = []string{"weight", "gewicht", "kg", "brutogewicht"}
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04",
	"02-01-2006",
	"02/01/2006",
}

// ParseDelimited разбирает CSV/TSV с автоопределением разделителя
func ParseDelimited(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ErrInputParse.Wrap(err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter := DetectDelimiter(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = delimiter != '\t'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ErrInputParse.Wrap(err)
	}

	result := ParseRecords(records)
	result.Detected.Delimiter = string(delimiter)
	return result, nil
}

// sniffLines - сколько непустых строк смотрит DetectDelimiter
const sniffLines = 5

// DetectDelimiter определяет разделитель по первым непустым строкам.
// Разделители внутри кавычек не считаются. ; и табуляция выигрывают у запятой,
// если делят каждую строку хотя бы на два поля.
func DetectDelimiter(data []byte) rune {
	lines := sampleLines(data, sniffLines)
	if len(lines) == 0 {
		return ','
	}

	best, bestMin, bestConsistent := rune(0), 0, false
	for _, d := range []rune{';', '\t'} {
		minFields, consistent := fieldStats(lines, d)
		if minFields < 2 {
			continue
		}
		if best == 0 || (consistent && !bestConsistent) ||
			(consistent == bestConsistent && minFields > bestMin) {
			best, bestMin, bestConsistent = d, minFields, consistent
		}
	}
	if best != 0 {
		return best
	}
	return ','
}

func sampleLines(data []byte, n int) []string {
	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() && len(lines) < n {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// fieldStats - минимальное число полей по строкам и одинаково ли оно во всех строках
func fieldStats(lines []string, d rune) (int, bool) {
	minFields, consistent := -1, true
	for _, line := range lines {
		n := countFields(line, d)
		if minFields >= 0 && n != minFields {
			consistent = false
		}
		if minFields < 0 || n < minFields {
			minFields = n
		}
	}
	return minFields, consistent
}

// countFields считает поля строки, пропуская разделители внутри двойных кавычек
func countFields(line string, d rune) int {
	fields, quoted := 1, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			fields++
		}
	}
	return fields
}

// ParseRecords применяет эвристику к сетке ячеек: заголовок, иначе позиционный разбор
func ParseRecords(records [][]string) *ParseResult {
	records = dropEmptyRecords(records)
	result := &ParseResult{Rows: make([]domain.TripRow, 0, len(records))}
	if len(records) == 0 {
		result.Detected.Format = domain.InputFormatPositional
		return result
	}

	if columns, ok := mapHeader(records[0]); ok {
		result.Detected.Format = domain.InputFormatHeaderDelimited
		result.Detected.Columns = make(map[string]string, len(columns))
		for key, idx := range columns {
			result.Detected.Columns[key] = strings.TrimSpace(records[0][idx])
		}
		for _, rec := range records[1:] {
			result.add(rowFromHeader(rec, columns))
		}
		return result
	}

	if isCoordinateRecord(records[0]) {
		result.Detected.Format = domain.InputFormatCoordinates
		for _, rec := range records {
			result.add(rowFromCoordinates(rec))
		}
		return result
	}

	result.Detected.Format = domain.InputFormatPositional
	for _, rec := range records {
		result.add(rowFromPositions(rec))
	}
	return result
}

func dropEmptyRecords(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		for _, f := range rec {
			if strings.TrimSpace(f) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// mapHeader сопоставляет заголовки с полями; заголовком считается строка,
// в которой найдены и начало, и конец поездки
func mapHeader(header []string) (map[string]int, bool) {
	columns := make(map[string]int)
	for i, h := range header {
		key := classifyHeader(h)
		if key == "" {
			continue
		}
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}

	hasOrigin := has(columns, colOrigin) || has(columns, colOriginPostcode) ||
		(has(columns, colOriginLat) && has(columns, colOriginLng))
	hasDest := has(columns, colDest) || has(columns, colDestPostcode) ||
		(has(columns, colDestLat) && has(columns, colDestLng))
	return columns, hasOrigin && hasDest
}

func has(m map[string]int, key string) bool {
	_, ok := m[key]
	return ok
}

// classifyHeader нормализует заголовок и ищет синонимы по токенам
func classifyHeader(raw string) string {
	tokens := headerTokens(raw)
	if len(tokens) == 0 {
		return ""
	}

	switch {
	case matchAny(tokens, plateWords):
		return colPlate
	case matchAny(tokens, weightWords):
		return colWeight
	}

	side := ""
	switch {
	case matchAny(tokens, originWords):
		side = colOrigin
	case matchAny(tokens, destinationWords):
		side = colDest
	}

	if side != "" {
		switch {
		case matchAny(tokens, postcodeWords):
			return side + "_postcode"
		case matchAny(tokens, latWords):
			return side + "_lat"
		case matchAny(tokens, lngWords):
			return side + "_lng"
		case matchAny(tokens, timestampWords):
			return colTimestamp
		}
		return side
	}

	switch {
	case matchAny(tokens, tripsWords):
		return colTrips
	case matchAny(tokens, vehicleWords):
		return colVehicle
	case matchAny(tokens, timestampWords):
		return colTimestamp
	}
	return ""
}

// headerTokens: "originPostalCode" -> [origin postal code], "Postcode-van" -> [postcode van]
func headerTokens(raw string) []string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			b.WriteRune(' ')
			prevLower = false
		}
	}
	return strings.Fields(b.String())
}

// matchAny: точное совпадение токена или префикс для синонимов длиннее 4 символов
func matchAny(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w || (len(w) > 4 && strings.HasPrefix(t, w)) {
				return true
			}
		}
	}
	return false
}

func field(rec []string, columns map[string]int, key string) string {
	idx, ok := columns[key]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func rowFromHeader(rec []string, columns map[string]int) domain.TripRow {
	row := domain.TripRow{
		Origin: endpoint(
			field(rec, columns, colOrigin),
			field(rec, columns, colOriginPostcode),
			field(rec, columns, colOriginLat),
			field(rec, columns, colOriginLng),
		),
		Destination: endpoint(
			field(rec, columns, colDest),
			field(rec, columns, colDestPostcode),
			field(rec, columns, colDestLat),
			field(rec, columns, colDestLng),
		),
		VehicleType:   field(rec, columns, colVehicle),
		LicensePlate:  field(rec, columns, colPlate),
		TripsPerDay:   parseTrips(field(rec, columns, colTrips)),
		Timestamp:     parseTimestamp(field(rec, columns, colTimestamp)),
		TotalWeightKg: parseNumber(field(rec, columns, colWeight)),
	}
	return row
}

// rowFromCoordinates: lat,lng,lat,lng[,vehicle[,trips]]
func rowFromCoordinates(rec []string) domain.TripRow {
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	return domain.TripRow{
		Origin:      endpoint("", "", get(0), get(1)),
		Destination: endpoint("", "", get(2), get(3)),
		VehicleType: get(4),
		TripsPerDay: parseTrips(get(5)),
	}
}

// rowFromPositions: origin,destination[,vehicle[,trips]]
func rowFromPositions(rec []string) domain.TripRow {
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	return domain.TripRow{
		Origin:      endpoint(get(0), "", "", ""),
		Destination: endpoint(get(1), "", "", ""),
		VehicleType: get(2),
		TripsPerDay: parseTrips(get(3)),
	}
}

// endpoint собирает все доступные представления; поле, содержащее только индекс,
// считается индексом, а не адресом
func endpoint(address, postcode, lat, lng string) domain.TripEndpoint {
	ep := domain.TripEndpoint{PostalCode: normalizePostcode(postcode)}
	if IsPostcode(address) && ep.PostalCode == "" {
		ep.PostalCode = normalizePostcode(address)
	} else {
		ep.Address = address
	}
	if p, ok := parsePoint(lat, lng); ok {
		ep.Location = &p
	}
	return ep
}

// IsPostcode - строка целиком является голландским индексом
func IsPostcode(s string) bool {
	return postcodePattern.MatchString(strings.TrimSpace(s))
}

// normalizePostcode: "3511ab" -> "3511 AB"
func normalizePostcode(s string) string {
	s = strings.TrimSpace(s)
	if !IsPostcode(s) {
		return s
	}
	compact := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	return compact[:4] + " " + compact[4:]
}

func isCoordinateRecord(rec []string) bool {
	if len(rec) < 4 {
		return false
	}
	_, ok1 := parsePoint(rec[0], rec[1])
	_, ok2 := parsePoint(rec[2], rec[3])
	return ok1 && ok2
}

func parsePoint(lat, lng string) (domain.GeoPoint, bool) {
	if lat == "" || lng == "" {
		return domain.GeoPoint{}, false
	}
	la, err := parseFloat(lat)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	lo, err := parseFloat(lng)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	p := domain.GeoPoint{Lat: la, Lng: lo}
	if !utils.IsFinitePoint(p) || !utils.ValidateCoordinates(la, lo) {
		return domain.GeoPoint{}, false
	}
	return p, true
}

// parseFloat принимает и десятичную запятую
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := parseFloat(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseTrips: неверное или непозитивное значение даёт 0, то есть частоту по умолчанию
func parseTrips(s string) float64 {
	v := parseNumber(s)
	if v <= 0 {
		return 0
	}
	return v
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (r *ParseResult) add(row domain.TripRow) {
	if !row.IsValid() {
		r.Dropped++
		return
	}
	row.Index = len(r.Rows)
	r.Rows = append(r.Rows, row)
}

func (r *ParseResult) String() string {
	return fmt.Sprintf("%d rows, %d dropped, format %s", len(r.Rows), r.Dropped, r.Detected.Format)
}
