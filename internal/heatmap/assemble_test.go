package heatmap

import (
	"encoding/json"
	"strings"
	"testing"
)

func goaGeo() *GeoResult {
	return &GeoResult{
		DistrictCol: "District_Name",
		Points: []GeoPoint{
			{DistrictKey: "north goa", OriginalDistrict: "North Goa", StateName: "Goa", Lat: 15.5, Lon: 73.8},
		},
	}
}

func goaIndicators() *IndicatorResult {
	return &IndicatorResult{
		Label: "Literacy Rate",
		Records: []IndicatorRecord{
			{DistrictKey: "north goa", Value: 42, Label: "Literacy Rate"},
		},
	}
}

func TestAssemble_SingleMatch(t *testing.T) {
	fc := Assemble("Goa", "X.1", "Literacy Rate", goaGeo(), goaIndicators())
	if fc.Type != "FeatureCollection" {
		t.Fatalf("type = %q", fc.Type)
	}
	if fc.CRS == nil || fc.CRS.Properties.Name != "urn:ogc:def:crs:OGC:1.3:CRS84" {
		t.Fatalf("crs = %+v", fc.CRS)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}
	f := fc.Features[0]
	if f.Properties.Value == nil || *f.Properties.Value != 42 {
		t.Errorf("value = %v, want 42", f.Properties.Value)
	}
	if f.Properties.OriginalCSVDistrictName != "North Goa" {
		t.Errorf("original name = %q", f.Properties.OriginalCSVDistrictName)
	}
	if f.Properties.IndicatorID != "X.1" || f.Properties.IndicatorName != "Literacy Rate" {
		t.Errorf("indicator fields = %+v", f.Properties)
	}
	if f.Geometry.Type != "Point" || f.Geometry.Coordinates != [2]float64{73.8, 15.5} {
		t.Errorf("geometry = %+v, want [lon lat]", f.Geometry)
	}
	md := fc.Metadata
	if md.Message != "Retrieved data for 1 points." {
		t.Errorf("message = %q", md.Message)
	}
	if !md.IndicatorSummary.Available || md.IndicatorSummary.Count != 1 {
		t.Errorf("indicator summary = %+v", md.IndicatorSummary)
	}
	if !md.GeographicSummary.Available || md.GeographicSummary.Count != 1 {
		t.Errorf("geographic summary = %+v", md.GeographicSummary)
	}
	ms := md.MergeSummary
	if ms == nil {
		t.Fatal("expected merge summary")
	}
	if ms.MatchedDistrictsCount != 1 || ms.GeoDistrictsCount != 1 || ms.IndicatorDistrictsCount != 1 {
		t.Errorf("merge summary = %+v", ms)
	}
	if len(ms.UnmatchedGeoDistrictsSample) != 0 || len(ms.UnmatchedIndicatorDistrictsSample) != 0 {
		t.Errorf("unexpected unmatched samples: %+v", ms)
	}
}

func TestAssemble_IndicatorUnavailable(t *testing.T) {
	fc := Assemble("Goa", "X.1", "Indicator ID X.1", nil, nil)
	if len(fc.Features) != 0 {
		t.Fatalf("got %d features, want 0", len(fc.Features))
	}
	if fc.CRS != nil {
		t.Error("degenerate response should not declare a CRS")
	}
	md := fc.Metadata
	if md.IndicatorSummary.Available || md.IndicatorSummary.Count != 0 {
		t.Errorf("indicator summary = %+v", md.IndicatorSummary)
	}
	if md.GeographicSummary.Available || md.GeographicSummary.Message != "Geographic data not loaded." {
		t.Errorf("geographic summary = %+v", md.GeographicSummary)
	}
	if md.Message != "No indicator data for state 'Goa', ID 'X.1'." {
		t.Errorf("message = %q", md.Message)
	}
	if md.MergeSummary != nil {
		t.Error("merge summary must be absent when a source is unavailable")
	}
	if md.FullIndicatorName != "Indicator ID X.1" {
		t.Errorf("full indicator name = %q", md.FullIndicatorName)
	}
}

func TestAssemble_GeographyUnavailable(t *testing.T) {
	fc := Assemble("Goa", "X.1", "Literacy Rate", nil, goaIndicators())
	if len(fc.Features) != 0 {
		t.Fatalf("got %d features, want 0", len(fc.Features))
	}
	md := fc.Metadata
	if !md.IndicatorSummary.Available || md.IndicatorSummary.Count != 1 {
		t.Errorf("indicator summary = %+v, want preserved diagnostics", md.IndicatorSummary)
	}
	want := "Geographic point data not found for state 'Goa'."
	if md.GeographicSummary.Message != want || md.Message != want {
		t.Errorf("messages = (%q, %q), want %q", md.GeographicSummary.Message, md.Message, want)
	}
	if md.MergeSummary != nil {
		t.Error("merge summary must be absent when geography is unavailable")
	}
}

func TestAssemble_UnmatchedDiagnostics(t *testing.T) {
	geo := &GeoResult{
		DistrictCol: "District_Name",
		Points: []GeoPoint{
			{DistrictKey: "a", OriginalDistrict: "A", Lat: 1, Lon: 2},
			{DistrictKey: "b", OriginalDistrict: "B", Lat: 3, Lon: 4},
			{DistrictKey: "c", OriginalDistrict: "C", Lat: 5, Lon: 6},
		},
	}
	ind := &IndicatorResult{
		Label: "Rate",
		Records: []IndicatorRecord{
			{DistrictKey: "a", Value: 10, Label: "Rate"},
			{DistrictKey: "d", Value: 20, Label: "Rate"},
		},
	}
	fc := Assemble("Somewhere", "ID", "Rate", geo, ind)
	if len(fc.Features) != 3 {
		t.Fatalf("got %d features, want one per geography point", len(fc.Features))
	}
	ms := fc.Metadata.MergeSummary
	if ms.MatchedDistrictsCount != 1 {
		t.Errorf("matched = %d, want 1", ms.MatchedDistrictsCount)
	}
	if ms.MatchedDistrictsCount > ms.GeoDistrictsCount || ms.MatchedDistrictsCount > ms.IndicatorDistrictsCount {
		t.Errorf("matched count exceeds source counts: %+v", ms)
	}
	wantGeo := []string{"b", "c"}
	if len(ms.UnmatchedGeoDistrictsSample) != 2 {
		t.Fatalf("unmatched geo = %v", ms.UnmatchedGeoDistrictsSample)
	}
	for i, k := range wantGeo {
		if ms.UnmatchedGeoDistrictsSample[i] != k {
			t.Errorf("unmatched geo[%d] = %q, want %q", i, ms.UnmatchedGeoDistrictsSample[i], k)
		}
	}
	if len(ms.UnmatchedIndicatorDistrictsSample) != 1 || ms.UnmatchedIndicatorDistrictsSample[0] != "d" {
		t.Errorf("unmatched indicators = %v", ms.UnmatchedIndicatorDistrictsSample)
	}
	var nullValued int
	for _, f := range fc.Features {
		if f.Properties.Value == nil {
			nullValued++
		}
	}
	if nullValued != 2 {
		t.Errorf("null-valued features = %d, want 2", nullValued)
	}
}

func TestAssemble_SamplesCappedAtFive(t *testing.T) {
	var points []GeoPoint
	for _, k := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		points = append(points, GeoPoint{DistrictKey: k, OriginalDistrict: k, Lat: 1, Lon: 1})
	}
	geo := &GeoResult{Points: points, DistrictCol: "D"}
	ind := &IndicatorResult{Label: "Rate", Records: []IndicatorRecord{{DistrictKey: "zz", Value: 1, Label: "Rate"}}}
	fc := Assemble("S", "ID", "Rate", geo, ind)
	if got := len(fc.Metadata.MergeSummary.UnmatchedGeoDistrictsSample); got != 5 {
		t.Fatalf("sample length = %d, want capped at 5", got)
	}
}

func TestAssemble_DuplicateIndicatorKeysFanOut(t *testing.T) {
	geo := &GeoResult{
		DistrictCol: "D",
		Points:      []GeoPoint{{DistrictKey: "a", OriginalDistrict: "A", Lat: 1, Lon: 2}},
	}
	ind := &IndicatorResult{
		Label: "Rate",
		Records: []IndicatorRecord{
			{DistrictKey: "a", Value: 1, Label: "Rate"},
			{DistrictKey: "a", Value: 2, Label: "Rate"},
		},
	}
	fc := Assemble("S", "ID", "Rate", geo, ind)
	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, want one per joined pair", len(fc.Features))
	}
	if fc.Metadata.MergeSummary.MatchedDistrictsCount != 2 {
		t.Errorf("matched = %d", fc.Metadata.MergeSummary.MatchedDistrictsCount)
	}
}

func TestAssemble_SentinelForMissingOriginalName(t *testing.T) {
	geo := &GeoResult{
		DistrictCol: "D",
		Points:      []GeoPoint{{DistrictKey: "x", OriginalDistrict: "", Lat: 1, Lon: 2}},
	}
	fc := Assemble("S", "ID", "Rate", geo, &IndicatorResult{Label: "Rate"})
	// An empty indicator result is treated as unavailable.
	if len(fc.Features) != 0 {
		t.Fatalf("features = %d", len(fc.Features))
	}

	ind := &IndicatorResult{Label: "Rate", Records: []IndicatorRecord{{DistrictKey: "x", Value: 1, Label: "Rate"}}}
	fc = Assemble("S", "ID", "Rate", geo, ind)
	if got := fc.Features[0].Properties.OriginalCSVDistrictName; got != "N/A" {
		t.Fatalf("original name = %q, want N/A sentinel", got)
	}
}

func TestAssemble_JSONShape(t *testing.T) {
	geo := &GeoResult{
		DistrictCol: "District_Name",
		Points: []GeoPoint{
			{DistrictKey: "north goa", OriginalDistrict: "North Goa", Lat: 15.5, Lon: 73.8},
			{DistrictKey: "south goa", OriginalDistrict: "South Goa", Lat: 15.2, Lon: 74.0},
		},
	}
	fc := Assemble("Goa", "X.1", "Literacy Rate", geo, goaIndicators())
	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		`"type":"FeatureCollection"`,
		`"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:OGC:1.3:CRS84"}}`,
		`"original_csv_district_name":"North Goa"`,
		`"district_standardized_geo":"south goa"`,
		`"value":null`,
		`"coordinates":[73.8,15.5]`,
		`"indicator_data_summary"`,
		`"geographic_data_summary"`,
		`"merge_summary"`,
		`"unmatched_geo_districts_sample":["south goa"]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response JSON missing %s\n%s", want, body)
		}
	}
}

func TestAssemble_DegenerateJSONShape(t *testing.T) {
	fc := Assemble("Goa", "X.1", "Indicator ID X.1", nil, nil)
	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"features":[]`) {
		t.Errorf("empty features must serialize as [], got %s", body)
	}
	if strings.Contains(body, "merge_summary") || strings.Contains(body, `"crs"`) {
		t.Errorf("degenerate response carries full-response keys: %s", body)
	}
}
