package csvtable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCellSimilarityPercentage(t *testing.T) {
	headers := []string{"input_doc", "top_similarity"}

	got := string(FormatCell("0.85", 1, 1, headers))

	assert.Contains(t, got, "85.0%")
	assert.Contains(t, got, "text-red-600 font-bold")
}

func TestFormatCellNumericGridValue(t *testing.T) {
	// Matrix-style column: the header is a document name, not "similarity",
	// so the value stays a 2-decimal fraction with the same color band.
	headers := []string{"input_doc", "doc_3"}

	got := string(FormatCell("0.85", 1, 1, headers))

	assert.Contains(t, got, "0.85")
	assert.NotContains(t, got, "%")
	assert.Contains(t, got, "text-red-600 font-bold")
}

func TestFormatCellColorBands(t *testing.T) {
	headers := []string{"doc", "top_similarity"}

	tests := []struct {
		value string
		class string
	}{
		{"0.95", "text-red-600 font-bold"},
		{"0.65", "text-orange-600 font-medium"},
		{"0.35", "text-yellow-600"},
		{"0.05", "text-blue-600"},
		{"0", "text-gray-600"},
	}
	for _, tt := range tests {
		got := string(FormatCell(tt.value, 1, 1, headers))
		assert.Contains(t, got, tt.class, "value %s", tt.value)
	}
}

func TestFormatCellFirstColumnNumberUntouched(t *testing.T) {
	// Column 0 under a non-similarity header is a row label, not a score.
	headers := []string{"rank", "doc"}

	got := string(FormatCell("0.85", 0, 1, headers))

	assert.Equal(t, "0.85", got)
}

func TestFormatCellRelationBadges(t *testing.T) {
	headers := []string{"doc", "relation"}

	tests := []struct {
		value string
		class string
		label string
	}{
		{"duplicate", "bg-red-100", "ซ้ำซ้อน"},
		{"duplicate/near-duplicate", "bg-red-100", "ซ้ำซ้อน"},
		{"similar", "bg-orange-100", "คล้ายคลึง"},
		{"Different", "bg-green-100", "แตกต่าง"},
	}
	for _, tt := range tests {
		got := string(FormatCell(tt.value, 1, 1, headers))
		assert.Contains(t, got, tt.class, "value %s", tt.value)
		assert.Contains(t, got, tt.label, "value %s", tt.value)
	}
}

func TestFormatCellBadgeIgnoresColumn(t *testing.T) {
	got := string(FormatCell("duplicate", 0, 3, []string{"anything"}))

	assert.Contains(t, got, "ซ้ำซ้อน")
}

func TestFormatCellInputSimilarities(t *testing.T) {
	headers := []string{"doc", "input_similarities"}

	got := string(FormatCell(`"[{'doc': 'a', 'score': 0.9}, {'doc': 'b', 'score': None}]"`, 1, 1, headers))
	assert.Contains(t, got, "2 matches")

	got = string(FormatCell("[not a list", 1, 1, headers))
	assert.Contains(t, got, "[Parse Error]")
	assert.Contains(t, got, "text-red-500")
}

func TestFormatCellSimilarityColumnWinsOverGeneric(t *testing.T) {
	// Ordering contract: a numeric cell under a "similarity" header takes
	// the percentage path even though the generic numeric path also matches.
	headers := []string{"doc", "name_similarity"}

	got := string(FormatCell("0.5", 1, 1, headers))

	assert.Contains(t, got, "50.0%")
}

func TestFormatCellTruncation(t *testing.T) {
	long := strings.Repeat("x", 150)

	got := string(FormatCell(long, 1, 1, []string{"doc", "summary"}))

	assert.Contains(t, got, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, got, strings.Repeat("x", 101))
	assert.Contains(t, got, `title="`+long+`"`)

	// Headers are never truncated.
	header := string(FormatCell(long, 1, 0, []string{"doc", "summary"}))
	assert.Contains(t, header, long)
}

func TestFormatCellEscapesHTML(t *testing.T) {
	got := string(FormatCell("<script>alert(1)</script>", 1, 1, []string{"doc", "summary"}))

	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func TestFormatCellOverOneValueNotFormatted(t *testing.T) {
	// 1.05 exceeds the float-overshoot allowance and stays plain text.
	got := string(FormatCell("1.05", 1, 1, []string{"doc", "top_similarity"}))

	assert.Equal(t, "1.05", got)
}
