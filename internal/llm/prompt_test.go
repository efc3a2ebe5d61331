package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homework-hero/internal/models"
)

func TestDescribeReadingLevel(t *testing.T) {
	tests := []struct {
		name  string
		level models.ReadingLevel
		want  string
	}{
		{"fp level", models.ReadingLevel{System: "fp", Level: "P"}, "Fountas & Pinnell level P"},
		{"first grade", models.ReadingLevel{System: "grade", Level: "1"}, "1st-grade reading level"},
		{"second grade", models.ReadingLevel{System: "grade", Level: "2"}, "2nd-grade reading level"},
		{"third grade", models.ReadingLevel{System: "grade", Level: "3"}, "3rd-grade reading level"},
		{"fourth grade", models.ReadingLevel{System: "grade", Level: "4"}, "4th-grade reading level"},
		{"eleventh grade", models.ReadingLevel{System: "grade", Level: "11"}, "11th-grade reading level"},
		{"twelfth grade", models.ReadingLevel{System: "grade", Level: "12"}, "12th-grade reading level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DescribeReadingLevel(tc.level)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := DescribeReadingLevel(models.ReadingLevel{System: "lexile", Level: "650"})
	require.Error(t, err)
	_, err = DescribeReadingLevel(models.ReadingLevel{System: "grade", Level: "two"})
	require.Error(t, err)
}

func TestExpandSystemPrompt(t *testing.T) {
	raw := "Write sentences at {reading_level}. Keep {reading_level} in mind."
	got, err := ExpandSystemPrompt(raw, models.ReadingLevel{System: "grade", Level: "4"})
	require.NoError(t, err)
	assert.Equal(t, "Write sentences at 4th-grade reading level. Keep 4th-grade reading level in mind.", got)
}

func TestLoadThemeContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "space.txt"), []byte("Rockets, planets, moons."), 0o644))

	got, err := LoadThemeContext(dir, "space")
	require.NoError(t, err)
	assert.Equal(t, "Rockets, planets, moons.", got)

	got, err = LoadThemeContext(dir, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = LoadThemeContext(dir, "missing")
	require.Error(t, err)
}

func TestBuildUserInput(t *testing.T) {
	doc := &models.BuildDocument{
		Dataset:     "grade5",
		DocChecksum: "fedcba9876543210",
		Data: []models.BuildEntry{
			{Entry: models.Entry{Word: "orbit"}, Checksum: "aaaa"},
		},
	}

	got, err := BuildUserInput(doc, "Rockets and planets.")
	require.NoError(t, err)
	assert.Contains(t, got, "REQUEST JSON:\n")
	assert.Contains(t, got, `"doc_checksum": "fedcba9876543210"`)
	assert.Contains(t, got, "\n\nTHEME:\nRockets and planets.")

	got, err = BuildUserInput(doc, "")
	require.NoError(t, err)
	assert.NotContains(t, got, "THEME:")
}
