package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFoldsAliases(t *testing.T) {
	env := &Envelope{
		Results: map[string]Section{
			"similarity_heatmap":  {Data: json.RawMessage(`{"x_labels":["a"],"y_labels":["b"],"values":[[0.5]]}`)},
			"network_top_matches": {Data: json.RawMessage(`{"nodes":[{"id":"n1","label":"n1","is_input":true}],"edges":[]}`)},
		},
	}

	env.Normalize()

	assert.NotNil(t, env.Section(KeyHeatmap))
	assert.NotNil(t, env.Section(KeyNetwork))
	assert.Nil(t, env.Section("similarity_heatmap"))
	assert.Nil(t, env.Section("network_top_matches"))
}

func TestNormalizeCanonicalKeyWins(t *testing.T) {
	env := &Envelope{
		Results: map[string]Section{
			KeyHeatmap:           {URL: "/files/canonical.png"},
			"similarity_heatmap": {URL: "/files/alias.png"},
		},
	}

	env.Normalize()

	require.NotNil(t, env.Section(KeyHeatmap))
	assert.Equal(t, "/files/canonical.png", env.Section(KeyHeatmap).URL)
}

func TestNormalizeDropsInvalidChartData(t *testing.T) {
	env := &Envelope{
		Results: map[string]Section{
			KeyHeatmap: {
				URL:  "/files/heatmap.png",
				Data: json.RawMessage(`{"x_labels":["a","b"],"y_labels":["y"],"values":[[0.1]]}`),
			},
		},
	}

	env.Normalize()

	// Ragged matrix: data is dropped, the image URL survives.
	s := env.Section(KeyHeatmap)
	require.NotNil(t, s)
	assert.Empty(t, s.Data)
	assert.Equal(t, "/files/heatmap.png", s.URL)
}

func TestHeatmapDecodesAndValidates(t *testing.T) {
	s := Section{Data: json.RawMessage(`{"x_labels":["d1","d2"],"y_labels":["in1"],"values":[[0.25,95]]}`)}

	d, err := s.Heatmap()

	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, d.XLabels)
	// 0-100 scaled values are coerced to fractions.
	assert.InDelta(t, 0.95, d.Values[0][1], 1e-9)
	assert.InDelta(t, 0.25, d.Values[0][0], 1e-9)
}

func TestNetworkRequiresNodes(t *testing.T) {
	s := Section{Data: json.RawMessage(`{"nodes":[],"edges":[]}`)}

	_, err := s.Network()

	assert.Error(t, err)
}

func TestRankingAcceptsObjectAndString(t *testing.T) {
	obj := `{"db_overall_rank":[{"db_doc":"a.txt","best_similarity":72}]}`

	direct := Section{Content: json.RawMessage(obj)}
	rc, err := direct.Ranking()
	require.NoError(t, err)
	require.Len(t, rc.DBRank, 1)
	assert.InDelta(t, 0.72, rc.DBRank[0].BestSimilarity, 1e-9)

	quoted, merr := json.Marshal(obj)
	require.NoError(t, merr)
	wrapped := Section{Content: json.RawMessage(quoted)}
	rc2, err := wrapped.Ranking()
	require.NoError(t, err)
	require.Len(t, rc2.DBRank, 1)
	assert.InDelta(t, 0.72, rc2.DBRank[0].BestSimilarity, 1e-9)
}

func TestRankingNormalizesInputSimilarities(t *testing.T) {
	s := Section{Content: json.RawMessage(`{
		"analysis_by_input":[{"input_title":"ch1.txt","similarities":[{"similarity":83.4},{"similarity":0.5}]}]
	}`)}

	rc, err := s.Ranking()

	require.NoError(t, err)
	sims := rc.AnalysisByInput[0].Similarities
	assert.InDelta(t, 0.834, sims[0].Similarity, 1e-9)
	assert.InDelta(t, 0.5, sims[1].Similarity, 1e-9)
}

func TestSectionText(t *testing.T) {
	assert.Equal(t, "report body", Section{Content: json.RawMessage(`"report body"`)}.Text())
	assert.Equal(t, "", Section{Content: json.RawMessage(`{"k":1}`)}.Text())
	assert.Equal(t, "", Section{}.Text())
}

func TestEnvelopeSectionMissing(t *testing.T) {
	var env *Envelope
	assert.Nil(t, env.Section(KeyReport))
	assert.Nil(t, (&Envelope{}).Section(KeyReport))
}
