package heatmap

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrSourceUnavailable marks an indicator or geography source that cannot be
// located, opened, or downloaded. Loaders swallow it at their boundary and
// return a nil result.
var ErrSourceUnavailable = errors.New("source unavailable")

const (
	defaultFetchTimeout = 30 * time.Second
	maxArchiveBytes     = 64 << 20
)

// Indicator source kinds, resolved in this order (first match wins).
const (
	SourceRemoteZip = "remote_zip"
	SourceLocalZip  = "local_zip"
	SourceDirectory = "directory"
	SourceNone      = "none"
)

// IndicatorRecord is one district's value for a requested indicator. Records
// with a non-numeric value are dropped before a result is returned, so Value
// is always set.
type IndicatorRecord struct {
	DistrictKey string
	Value       float64
	Label       string
}

// IndicatorResult holds the surviving per-district records for one
// (state, indicator) query. Every record carries the consensus Label.
type IndicatorResult struct {
	Records []IndicatorRecord
	Label   string
}

// IndicatorLoader reads per-district indicator documents for a state from a
// configured base location: a remote zip URL, a local zip archive, or a local
// directory tree laid out as <base>/<state_key>/<district>.json.
type IndicatorLoader struct {
	base   string
	client *http.Client
	logger zerolog.Logger
}

func NewIndicatorLoader(base string, client *http.Client, logger zerolog.Logger) *IndicatorLoader {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &IndicatorLoader{base: base, client: client, logger: logger}
}

// SourceKind reports which source strategy the configured base location
// resolves to. Used for instrumentation labels.
func (l *IndicatorLoader) SourceKind() string {
	switch {
	case isRemoteZip(l.base):
		return SourceRemoteZip
	case isLocalZip(l.base):
		return SourceLocalZip
	case isDirectory(l.base):
		return SourceDirectory
	}
	return SourceNone
}

// Load collects indicator values for every district document of the given
// state. stateKey is the path-safe (underscored) standardized state name.
//
// The second return is the resolved human-readable indicator label; it is
// meaningful even when the result is nil, falling back to
// "Indicator ID <id>" when no document ever supplied one. Load never fails:
// source errors are logged and reported as a nil result.
func (l *IndicatorLoader) Load(ctx context.Context, stateKey, indicatorID string) (*IndicatorResult, string) {
	fallback := "Indicator ID " + indicatorID

	docs, err := l.collectDocs(ctx, stateKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn().Str("state", stateKey).Str("base", l.base).Msg("state indicator directory not found")
		} else {
			l.logger.Error().Err(err).Str("state", stateKey).Str("base", l.base).Msg("failed to open indicator source")
		}
		return nil, fallback
	}

	running := fallback
	type scanRow struct {
		key   string
		value float64
		valid bool
		label string
	}
	var rows []scanRow
	for _, d := range docs {
		key := Standardize(strings.TrimSuffix(d.name, ".json"))
		if key == "" {
			continue
		}
		var doc districtDocument
		if err := json.Unmarshal(d.data, &doc); err != nil {
			l.logger.Error().Err(err).Str("file", d.name).Msg("failed to parse district document")
			continue
		}
		entry, ok := doc.Indicators[indicatorID]
		if !ok {
			continue
		}
		raw := running
		if entry.Indicator != nil {
			raw = *entry.Indicator
		}
		running = extractLabel(raw, indicatorID)
		value, valid := toNumeric(entry.Value)
		rows = append(rows, scanRow{key: key, value: value, valid: valid, label: running})
	}

	if len(rows) == 0 {
		return nil, running
	}
	records := make([]IndicatorRecord, 0, len(rows))
	for _, r := range rows {
		if r.valid {
			records = append(records, IndicatorRecord{DistrictKey: r.key, Value: r.value, Label: r.label})
		}
	}
	if len(records) == 0 {
		return nil, running
	}

	label := consensusLabel(records)
	for i := range records {
		records[i].Label = label
	}
	return &IndicatorResult{Records: records, Label: label}, label
}

type districtDocument struct {
	Indicators map[string]indicatorEntry `json:"indicators"`
}

type indicatorEntry struct {
	Value     any     `json:"value"`
	Indicator *string `json:"indicator"`
}

type sourceDoc struct {
	name string
	data []byte
}

// collectDocs resolves the configured base location to one of the source
// strategies and returns the state's candidate documents. Order: remote zip
// URL, local zip file, local directory, none.
func (l *IndicatorLoader) collectDocs(ctx context.Context, stateKey string) ([]sourceDoc, error) {
	switch {
	case isRemoteZip(l.base):
		return l.remoteZipDocs(ctx, stateKey)
	case isLocalZip(l.base):
		return l.localZipDocs(stateKey)
	case isDirectory(l.base):
		return l.dirDocs(stateKey)
	}
	return nil, fmt.Errorf("%w: %q is not a zip URL, zip file, or directory", ErrSourceUnavailable, l.base)
}

func isRemoteZip(base string) bool {
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(base), ".zip")
}

func isLocalZip(base string) bool {
	if !strings.HasSuffix(strings.ToLower(base), ".zip") {
		return false
	}
	info, err := os.Stat(base)
	return err == nil && info.Mode().IsRegular()
}

func isDirectory(base string) bool {
	info, err := os.Stat(base)
	return err == nil && info.IsDir()
}

func (l *IndicatorLoader) remoteZipDocs(ctx context.Context, stateKey string) ([]sourceDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading archive: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: archive download returned status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading archive: %v", ErrSourceUnavailable, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive: %v", ErrSourceUnavailable, err)
	}
	return l.zipDocs(zr.File, stateKey), nil
}

func (l *IndicatorLoader) localZipDocs(stateKey string) ([]sourceDoc, error) {
	zr, err := zip.OpenReader(l.base)
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive: %v", ErrSourceUnavailable, err)
	}
	defer zr.Close()
	return l.zipDocs(zr.File, stateKey), nil
}

// zipDocs selects archive entries exactly one path segment below the state
// prefix, i.e. <stateKey>/<district>.json but not nested subfolders.
func (l *IndicatorLoader) zipDocs(files []*zip.File, stateKey string) []sourceDoc {
	prefix := stateKey + "/"
	var docs []sourceDoc
	for _, f := range files {
		name := f.Name
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.Contains(strings.TrimPrefix(name, prefix), "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			l.logger.Error().Err(err).Str("entry", name).Msg("failed to open archive entry")
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxArchiveBytes))
		rc.Close()
		if err != nil {
			l.logger.Error().Err(err).Str("entry", name).Msg("failed to read archive entry")
			continue
		}
		docs = append(docs, sourceDoc{name: path.Base(name), data: data})
	}
	return docs
}

func (l *IndicatorLoader) dirDocs(stateKey string) ([]sourceDoc, error) {
	dir := filepath.Join(l.base, stateKey)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	var docs []sourceDoc
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			l.logger.Error().Err(err).Str("file", e.Name()).Msg("failed to read district document")
			continue
		}
		docs = append(docs, sourceDoc{name: e.Name(), data: data})
	}
	return docs, nil
}

// extractLabel derives the human-readable indicator name from a document's
// raw label text. When the text contains the indicator id, everything after
// the first occurrence becomes the label, with one leading '.', ')' or ':'
// stripped; an id-less or empty remainder falls back to the raw text.
func extractLabel(raw, indicatorID string) string {
	if indicatorID == "" || !strings.Contains(raw, indicatorID) {
		return raw
	}
	_, after, _ := strings.Cut(raw, indicatorID)
	part := strings.TrimSpace(after)
	if part != "" {
		switch part[0] {
		case '.', ')', ':':
			part = strings.TrimSpace(part[1:])
		}
	}
	if part == "" {
		return raw
	}
	return part
}

// toNumeric coerces a decoded JSON value to float64. Numbers pass through,
// numeric strings are parsed, everything else (null, bool, objects) is
// non-numeric.
func toNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// consensusLabel picks the most frequent label; ties go to the label whose
// first occurrence is earliest.
func consensusLabel(records []IndicatorRecord) string {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if counts[r.Label] == 0 {
			order = append(order, r.Label)
		}
		counts[r.Label]++
	}
	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best
}
