package models

import "encoding/json"

// Canonical result section keys. The backend has shipped several historical
// aliases for the chart sections; Normalize folds them onto these.
const (
	KeyReport           = "report"
	KeyComparisonTable  = "comparison_table"
	KeySimilarityMatrix = "similarity_matrix"
	KeyOverallRanking   = "overall_ranking"
	KeyHeatmap          = "heatmap"
	KeyNetwork          = "network"
)

// Parameters echoes the analysis parameters a job was submitted with.
type Parameters struct {
	KNeighbors       int     `json:"k_neighbors"`
	DupThreshold     float64 `json:"dup_threshold"`
	SimilarThreshold float64 `json:"similar_threshold"`
}

// DefaultParameters are the UI defaults used when a form field is absent.
func DefaultParameters() Parameters {
	return Parameters{KNeighbors: 3, DupThreshold: 0.90, SimilarThreshold: 0.60}
}

// Section is one named result in the envelope. Exactly which fields are set
// depends on the section: report/ranking carry Content, the CSV tables carry
// only a URL, and the chart sections carry Data plus an optional image URL.
// Every field may be absent; renderers degrade to omission, never error.
type Section struct {
	Content  json.RawMessage `json:"content,omitempty"`
	URL      string          `json:"url,omitempty"`
	Filename string          `json:"filename,omitempty"`
	Base64   string          `json:"base64,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Text decodes Content as a plain string, returning "" when Content is
// absent or not a string.
func (s Section) Text() string {
	var out string
	if len(s.Content) == 0 || json.Unmarshal(s.Content, &out) != nil {
		return ""
	}
	return out
}

// Envelope is the top-level response of the analysis backend for one job.
type Envelope struct {
	Status          string             `json:"status"`
	Message         string             `json:"message,omitempty"`
	SessionID       string             `json:"session_id"`
	ProcessedFiles  []string           `json:"processed_files"`
	FileNameMapping map[string]string  `json:"file_name_mapping,omitempty"`
	Parameters      Parameters         `json:"parameters"`
	Results         map[string]Section `json:"results"`
}

// Section returns the named result section, nil when absent.
func (e *Envelope) Section(key string) *Section {
	if e == nil || e.Results == nil {
		return nil
	}
	if s, ok := e.Results[key]; ok {
		return &s
	}
	return nil
}

// HeatmapData is the inline plot payload of the heatmap section.
type HeatmapData struct {
	XLabels []string    `json:"x_labels"`
	YLabels []string    `json:"y_labels"`
	Values  [][]float64 `json:"values"`
}

// NetworkNode is one endpoint in the bipartite relationship graph. Input
// files sit on one side, database documents on the other.
type NetworkNode struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	IsInput bool   `json:"is_input"`
}

// NetworkEdge links an input node to a database node, weighted by similarity.
type NetworkEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// NetworkData is the inline plot payload of the network section.
type NetworkData struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// SimilarityHit is one database document matched against an input file.
type SimilarityHit struct {
	Similarity   float64 `json:"similarity"`
	Genre        string  `json:"genre,omitempty"`
	FolderName   string  `json:"folder_name,omitempty"`
	ChapterName  string  `json:"chapter_name,omitempty"`
	DatabaseFile string  `json:"database_file,omitempty"`
}

// InputAnalysis holds the per-input-file match list of the ranking payload.
type InputAnalysis struct {
	InputTitle   string          `json:"input_title"`
	Similarities []SimilarityHit `json:"similarities"`
}

// GenreRank summarizes one genre's similarity scores across all inputs.
type GenreRank struct {
	Genre string  `json:"genre"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// DocRank is one database document in the overall ranking. The backend has
// used several field names for the display title over time; NovelTitle,
// Title and FolderName are tried in that order.
type DocRank struct {
	DBDoc          string  `json:"db_doc"`
	NovelTitle     string  `json:"novel_title,omitempty"`
	Title          string  `json:"title,omitempty"`
	FolderName     string  `json:"folder_name,omitempty"`
	ChapterName    string  `json:"chapter_name,omitempty"`
	FileName       string  `json:"file_name,omitempty"`
	Genre          string  `json:"genre,omitempty"`
	BestSimilarity float64 `json:"best_similarity"`
}

// AnalysisInfo carries run metadata shown in the ranking card.
type AnalysisInfo struct {
	DetectedLanguage string `json:"detected_language,omitempty"`
	ThaiSupport      bool   `json:"thai_support_available"`
	TotalDBDocuments int    `json:"total_db_documents"`
	TotalInputFiles  int    `json:"total_input_files"`
}

// RankingContent is the decoded content of the overall_ranking section.
type RankingContent struct {
	AnalysisByInput []InputAnalysis `json:"analysis_by_input"`
	GenreRank       []GenreRank     `json:"genre_rank_overall"`
	DBRank          []DocRank       `json:"db_overall_rank"`
	AnalysisInfo    *AnalysisInfo   `json:"analysis_info,omitempty"`
}
