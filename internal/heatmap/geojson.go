package heatmap

// GeoJSON response types. Coordinates are [longitude, latitude] per the
// GeoJSON spec; CRS84 is declared explicitly on full responses.

const crs84 = "urn:ogc:def:crs:OGC:1.3:CRS84"

type FeatureCollection struct {
	Type     string    `json:"type"`
	CRS      *CRS      `json:"crs,omitempty"`
	Features []Feature `json:"features"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type CRS struct {
	Type       string        `json:"type"`
	Properties CRSProperties `json:"properties"`
}

type CRSProperties struct {
	Name string `json:"name"`
}

type Feature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   PointGeometry     `json:"geometry"`
}

type FeatureProperties struct {
	OriginalCSVDistrictName string   `json:"original_csv_district_name"`
	DistrictStandardizedGeo string   `json:"district_standardized_geo"`
	Value                   *float64 `json:"value"`
	IndicatorID             string   `json:"indicator_id"`
	IndicatorName           string   `json:"indicator_name"`
}

type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Metadata describes how the response was assembled: what the caller asked
// for, whether each source had data, and join diagnostics when both did.
type Metadata struct {
	QueryState        string            `json:"query_state"`
	QueryIndicatorID  string            `json:"query_indicator_id"`
	FullIndicatorName string            `json:"full_indicator_name"`
	Message           string            `json:"message"`
	IndicatorSummary  IndicatorSummary  `json:"indicator_data_summary"`
	GeographicSummary GeographicSummary `json:"geographic_data_summary"`
	MergeSummary      *MergeSummary     `json:"merge_summary,omitempty"`
}

type IndicatorSummary struct {
	Count     int  `json:"count"`
	Available bool `json:"available"`
}

type GeographicSummary struct {
	Count     int    `json:"count"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type MergeSummary struct {
	GeoDistrictsCount                 int      `json:"geo_districts_count"`
	IndicatorDistrictsCount           int      `json:"indicator_districts_count"`
	MatchedDistrictsCount             int      `json:"matched_districts_count"`
	UnmatchedGeoDistrictsSample       []string `json:"unmatched_geo_districts_sample"`
	UnmatchedIndicatorDistrictsSample []string `json:"unmatched_indicator_districts_sample"`
}
