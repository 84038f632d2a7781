package models

import (
	"encoding/json"
	"errors"
)

// Normalize folds the accepted backend payload variants into one canonical
// shape so rendering never branches on provenance:
//
//   - chart section aliases (similarity_heatmap/heatmap,
//     network_top_matches/network) collapse onto the canonical keys;
//   - every similarity score becomes a fraction in [0,1] - historical
//     payloads carried 0-100 scaled numbers in some fields;
//   - ranking content arriving as a JSON-encoded string is unwrapped;
//   - chart sections whose inline data fails to decode are dropped rather
//     than failing the envelope.
func (e *Envelope) Normalize() {
	if e == nil || e.Results == nil {
		return
	}

	foldAlias(e.Results, "similarity_heatmap", KeyHeatmap)
	foldAlias(e.Results, "network_top_matches", KeyNetwork)

	if s, ok := e.Results[KeyHeatmap]; ok && len(s.Data) > 0 {
		if _, err := s.Heatmap(); err != nil {
			s.Data = nil
			e.Results[KeyHeatmap] = s
		}
	}
	if s, ok := e.Results[KeyNetwork]; ok && len(s.Data) > 0 {
		if _, err := s.Network(); err != nil {
			s.Data = nil
			e.Results[KeyNetwork] = s
		}
	}
}

// foldAlias keeps the aliased key's value under the canonical key. The
// canonical key wins when both are present.
func foldAlias(results map[string]Section, alias, canonical string) {
	if s, ok := results[alias]; ok {
		if _, exists := results[canonical]; !exists {
			results[canonical] = s
		}
		delete(results, alias)
	}
}

// Heatmap decodes and validates the section's inline heatmap payload. The
// value matrix must be rectangular and match the label dimensions.
func (s Section) Heatmap() (*HeatmapData, error) {
	if len(s.Data) == 0 {
		return nil, errors.New("no heatmap data")
	}
	var d HeatmapData
	if err := json.Unmarshal(s.Data, &d); err != nil {
		return nil, err
	}
	if len(d.XLabels) == 0 || len(d.YLabels) == 0 || len(d.Values) != len(d.YLabels) {
		return nil, errors.New("heatmap data incomplete")
	}
	for i, row := range d.Values {
		if len(row) != len(d.XLabels) {
			return nil, errors.New("heatmap matrix not rectangular")
		}
		for j, v := range row {
			d.Values[i][j] = asFraction(v)
		}
	}
	return &d, nil
}

// Network decodes and validates the section's inline graph payload.
func (s Section) Network() (*NetworkData, error) {
	if len(s.Data) == 0 {
		return nil, errors.New("no network data")
	}
	var d NetworkData
	if err := json.Unmarshal(s.Data, &d); err != nil {
		return nil, err
	}
	if len(d.Nodes) == 0 {
		return nil, errors.New("network data has no nodes")
	}
	for i := range d.Edges {
		d.Edges[i].Weight = asFraction(d.Edges[i].Weight)
	}
	return &d, nil
}

// Ranking decodes the overall_ranking content, accepting both an inline
// object and a JSON-encoded string of the same object.
func (s Section) Ranking() (*RankingContent, error) {
	if len(s.Content) == 0 {
		return nil, errors.New("no ranking content")
	}

	raw := s.Content
	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		raw = json.RawMessage(wrapped)
	}

	var rc RankingContent
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, err
	}

	for i := range rc.AnalysisByInput {
		sims := rc.AnalysisByInput[i].Similarities
		for j := range sims {
			sims[j].Similarity = asFraction(sims[j].Similarity)
		}
	}
	for i := range rc.GenreRank {
		rc.GenreRank[i].Max = asFraction(rc.GenreRank[i].Max)
		rc.GenreRank[i].Mean = asFraction(rc.GenreRank[i].Mean)
	}
	for i := range rc.DBRank {
		rc.DBRank[i].BestSimilarity = asFraction(rc.DBRank[i].BestSimilarity)
	}
	return &rc, nil
}

// asFraction coerces a similarity score to the canonical [0,1] convention.
// Values above the float-overshoot allowance are 0-100 scaled.
func asFraction(v float64) float64 {
	if v > 1.01 {
		return v / 100
	}
	return v
}
