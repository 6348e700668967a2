package heatmap

import "fmt"

const sampleLimit = 5

// Assemble merges the loader results for one query into the response
// FeatureCollection. A nil indicator result produces an empty collection
// whose metadata reports indicator unavailability; a nil geography result
// reports geography unavailability while keeping the indicator diagnostics.
// With both present, every geography point is left-joined to the indicator
// records on the district key, so unmatched points survive with a null value.
func Assemble(queryState, indicatorID, label string, geo *GeoResult, ind *IndicatorResult) *FeatureCollection {
	if ind == nil || len(ind.Records) == 0 {
		return emptyCollection(queryState, indicatorID, label,
			fmt.Sprintf("No indicator data for state '%s', ID '%s'.", queryState, indicatorID),
			IndicatorSummary{Count: 0, Available: false},
			GeographicSummary{Count: 0, Available: false, Message: "Geographic data not loaded."})
	}
	indSummary := IndicatorSummary{Count: len(ind.Records), Available: true}
	if geo == nil || len(geo.Points) == 0 {
		geoSummary := GeographicSummary{
			Count:     0,
			Available: false,
			Message:   fmt.Sprintf("Geographic point data not found for state '%s'.", queryState),
		}
		return emptyCollection(queryState, indicatorID, label, geoSummary.Message, indSummary, geoSummary)
	}

	byKey := make(map[string][]IndicatorRecord, len(ind.Records))
	for _, r := range ind.Records {
		byKey[r.DistrictKey] = append(byKey[r.DistrictKey], r)
	}
	geoKeys := make(map[string]struct{}, len(geo.Points))
	features := []Feature{}
	matched := 0
	unmatchedGeo := []string{}
	for _, p := range geo.Points {
		geoKeys[p.DistrictKey] = struct{}{}
		rows := byKey[p.DistrictKey]
		if len(rows) == 0 {
			features = append(features, makeFeature(p, nil, indicatorID, label))
			unmatchedGeo = append(unmatchedGeo, p.DistrictKey)
			continue
		}
		for _, r := range rows {
			value := r.Value
			features = append(features, makeFeature(p, &value, indicatorID, label))
			matched++
		}
	}
	unmatchedInd := []string{}
	seen := make(map[string]struct{})
	for _, r := range ind.Records {
		if _, ok := geoKeys[r.DistrictKey]; ok {
			continue
		}
		if _, dup := seen[r.DistrictKey]; dup {
			continue
		}
		seen[r.DistrictKey] = struct{}{}
		unmatchedInd = append(unmatchedInd, r.DistrictKey)
	}

	message := "No points found/matched."
	if len(features) > 0 {
		message = fmt.Sprintf("Retrieved data for %d points.", len(features))
	}
	return &FeatureCollection{
		Type:     "FeatureCollection",
		CRS:      &CRS{Type: "name", Properties: CRSProperties{Name: crs84}},
		Features: features,
		Metadata: &Metadata{
			QueryState:        queryState,
			QueryIndicatorID:  indicatorID,
			FullIndicatorName: label,
			Message:           message,
			IndicatorSummary:  indSummary,
			GeographicSummary: GeographicSummary{Count: len(geo.Points), Available: true},
			MergeSummary: &MergeSummary{
				GeoDistrictsCount:                 len(geo.Points),
				IndicatorDistrictsCount:           len(ind.Records),
				MatchedDistrictsCount:             matched,
				UnmatchedGeoDistrictsSample:       sample(unmatchedGeo),
				UnmatchedIndicatorDistrictsSample: sample(unmatchedInd),
			},
		},
	}
}

func emptyCollection(queryState, indicatorID, label, message string, ind IndicatorSummary, geo GeographicSummary) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
		Metadata: &Metadata{
			QueryState:        queryState,
			QueryIndicatorID:  indicatorID,
			FullIndicatorName: label,
			Message:           message,
			IndicatorSummary:  ind,
			GeographicSummary: geo,
		},
	}
}

func makeFeature(p GeoPoint, value *float64, indicatorID, label string) Feature {
	name := p.OriginalDistrict
	if name == "" {
		name = "N/A"
	}
	return Feature{
		Type: "Feature",
		Properties: FeatureProperties{
			OriginalCSVDistrictName: name,
			DistrictStandardizedGeo: p.DistrictKey,
			Value:                   value,
			IndicatorID:             indicatorID,
			IndicatorName:           label,
		},
		Geometry: PointGeometry{Type: "Point", Coordinates: [2]float64{p.Lon, p.Lat}},
	}
}

func sample(keys []string) []string {
	if len(keys) > sampleLimit {
		return keys[:sampleLimit]
	}
	return keys
}
