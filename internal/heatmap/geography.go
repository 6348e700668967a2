package heatmap

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const maxCSVBytes = 32 << 20

// GeoPoint is one district point after column resolution and coordinate
// coercion. OriginalDistrict keeps the source casing for display; DistrictKey
// is the standardized join key.
type GeoPoint struct {
	DistrictKey      string
	OriginalDistrict string
	StateName        string
	Lat              float64
	Lon              float64
}

// GeoResult holds the points for a single state plus the resolved district
// column name from the source table.
type GeoResult struct {
	Points      []GeoPoint
	DistrictCol string
}

// ColumnOverrides are explicit column names configured per logical role.
// Empty fields mean "auto-detect from the alias table".
type ColumnOverrides struct {
	State     string
	District  string
	Latitude  string
	Longitude string
}

// Column alias candidates per logical role, tried in order after the
// configured override. Extending a locale means extending these lists.
var (
	stateAliases    = []string{"State_Name", "state_name", "State", "state", "NAME_1", "ADM1_EN", "ST_NM"}
	districtAliases = []string{"District_Name", "district_name", "District", "district", "NAME_2", "ADM2_EN", "dt_name", "Dist_Name"}
	latAliases      = []string{"Latitude", "latitude", "Lat", "lat", "Y", "y_coord"}
	lonAliases      = []string{"Longitude", "longitude", "Lon", "lon", "X", "x_coord"}
)

// GeoLoader reads the district point table from a CSV at a local path or
// http(s) URL, resolving which columns hold state, district, and coordinates.
type GeoLoader struct {
	source    string
	overrides ColumnOverrides
	client    *http.Client
	logger    zerolog.Logger
}

func NewGeoLoader(source string, overrides ColumnOverrides, client *http.Client, logger zerolog.Logger) *GeoLoader {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &GeoLoader{source: source, overrides: overrides, client: client, logger: logger}
}

// Load returns the point table filtered to the given standardized state name.
// The second return is the resolved district column name; it is surfaced even
// when coercion or key standardization empties the result, so callers can
// still name the column in diagnostics. Load never fails: every error path is
// logged and reported as a nil result.
func (l *GeoLoader) Load(ctx context.Context, standardizedState string) (*GeoResult, string) {
	raw, err := l.fetch(ctx)
	if err != nil {
		l.logger.Error().Err(err).Str("source", l.source).Msg("failed to acquire geographic CSV")
		return nil, ""
	}
	table, encodingName, err := decodeCSV(raw)
	if err != nil {
		l.logger.Error().Err(err).Str("source", l.source).Msg("failed to parse geographic CSV")
		return nil, ""
	}
	l.logger.Info().Str("source", l.source).Str("encoding", encodingName).Int("rows", len(table.rows)).Msg("loaded geographic CSV")

	stateCol := l.resolveColumn(table.columns, l.overrides.State, "state name", stateAliases)
	if stateCol == "" {
		return nil, ""
	}
	stateIdx := table.index[stateCol]
	var filtered [][]string
	for _, row := range table.rows {
		if Standardize(row[stateIdx]) == standardizedState {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		l.logger.Warn().Str("state", standardizedState).Str("source", l.source).Msg("no geographic rows for state")
		return nil, ""
	}

	districtCol := l.resolveColumn(table.columns, l.overrides.District, "district name", districtAliases)
	if districtCol == "" {
		return nil, ""
	}
	latCol := l.resolveColumn(table.columns, l.overrides.Latitude, "latitude", latAliases)
	if latCol == "" {
		return nil, ""
	}
	lonCol := l.resolveColumn(table.columns, l.overrides.Longitude, "longitude", lonAliases)
	if lonCol == "" {
		return nil, ""
	}
	districtIdx, latIdx, lonIdx := table.index[districtCol], table.index[latCol], table.index[lonCol]

	points := make([]GeoPoint, 0, len(filtered))
	for _, row := range filtered {
		lat, latOK := parseCoordinate(row[latIdx])
		lon, lonOK := parseCoordinate(row[lonIdx])
		if !latOK || !lonOK {
			continue
		}
		points = append(points, GeoPoint{
			OriginalDistrict: row[districtIdx],
			StateName:        row[stateIdx],
			Lat:              lat,
			Lon:              lon,
		})
	}
	if len(points) == 0 {
		l.logger.Warn().Str("state", standardizedState).Int("state_rows", len(filtered)).Msg("no rows with valid coordinates for state")
		return nil, districtCol
	}

	keyed := points[:0]
	for _, p := range points {
		p.DistrictKey = Standardize(p.OriginalDistrict)
		if p.DistrictKey == "" {
			continue
		}
		keyed = append(keyed, p)
	}
	if len(keyed) == 0 {
		l.logger.Warn().Str("state", standardizedState).Msg("all district names standardized to empty for state")
		return nil, districtCol
	}
	return &GeoResult{Points: keyed, DistrictCol: districtCol}, districtCol
}

func (l *GeoLoader) fetch(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: downloading CSV: %v", ErrSourceUnavailable, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: CSV download returned status %d", ErrSourceUnavailable, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxCSVBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV: %v", ErrSourceUnavailable, err)
		}
		return data, nil
	}
	info, err := os.Stat(l.source)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: geographic CSV file not found at %q", ErrSourceUnavailable, l.source)
	}
	data, err := os.ReadFile(l.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return data, nil
}

// resolveColumn maps a logical role to an actual column: the configured
// override when present in the table, otherwise the first matching alias.
func (l *GeoLoader) resolveColumn(columns []string, override, role string, aliases []string) string {
	if override != "" {
		if columnPresent(columns, override) {
			l.logger.Info().Str("role", role).Str("column", override).Msg("using configured column")
			return override
		}
		l.logger.Warn().Str("role", role).Str("column", override).Strs("available", columns).Msg("configured column not found, auto-detecting")
	}
	for _, name := range aliases {
		if columnPresent(columns, name) {
			l.logger.Info().Str("role", role).Str("column", name).Msg("auto-detected column")
			return name
		}
	}
	l.logger.Error().Str("role", role).Strs("tried", aliases).Strs("available", columns).Msg("could not identify column")
	return ""
}

func columnPresent(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func parseCoordinate(field string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	return f, err == nil
}

type csvTable struct {
	columns []string
	rows    [][]string
	index   map[string]int
}

// decodeCSV tries a fixed ladder of text encodings over the raw bytes and
// parses the first successful decoding as CSV. An empty file yields an empty
// table rather than an error.
func decodeCSV(raw []byte) (*csvTable, string, error) {
	decoded, name, err := decodeText(raw)
	if err != nil {
		return nil, "", err
	}
	r := csv.NewReader(bytes.NewReader(decoded))
	records, err := r.ReadAll()
	if err != nil {
		return nil, name, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	t := &csvTable{index: make(map[string]int)}
	if len(records) == 0 {
		return t, name, nil
	}
	t.columns = records[0]
	t.rows = records[1:]
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	return t, name, nil
}

type encodingStrategy struct {
	name   string
	decode func([]byte) ([]byte, bool)
}

// Encoding ladder, tried in order; a rung that cannot decode the bytes is
// skipped. Latin-1 accepts any byte sequence, so the ladder always succeeds.
var encodingLadder = []encodingStrategy{
	{"utf-16", decodeUTF16BOM},
	{"utf-8-sig", decodeUTF8BOM},
	{"utf-8", decodePlainUTF8},
	{"latin-1", decodeLatin1},
}

func decodeText(raw []byte) ([]byte, string, error) {
	for _, enc := range encodingLadder {
		if out, ok := enc.decode(raw); ok {
			return out, enc.name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: no encoding in ladder decoded the input", ErrSourceUnavailable)
}

func decodeUTF16BOM(raw []byte) ([]byte, bool) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return nil, false
	}
	return out, true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeUTF8BOM(raw []byte) ([]byte, bool) {
	if !bytes.HasPrefix(raw, utf8BOM) {
		return nil, false
	}
	body := raw[len(utf8BOM):]
	if !utf8.Valid(body) {
		return nil, false
	}
	return body, true
}

func decodePlainUTF8(raw []byte) ([]byte, bool) {
	if !utf8.Valid(raw) {
		return nil, false
	}
	return raw, true
}

func decodeLatin1(raw []byte) ([]byte, bool) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, false
	}
	return out, true
}
