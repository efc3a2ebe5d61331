package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReferenceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"source_datasets.json": `[
			{"key_name": "ww3000_bk3", "title": "Wordly Wise 3000 Book 3", "sections": 15},
			{"key_name": "grade5", "title": "Grade 5 Vocabulary"},
			{"title": "no key name, skipped"}
		]`,
		"themes.json": `[
			{"key_name": "kpop", "title": "K-Pop"},
			{"key_name": "space"}
		]`,
		"models.json": `{"key_name": "gpt-5-mini", "title": "GPT-5 Mini"}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeReferenceDir(t))
	require.NoError(t, err)

	require.Len(t, reg.Datasets, 2)
	assert.Equal(t, "ww3000_bk3", reg.Datasets[0].ID)
	assert.Equal(t, 15, reg.Datasets[0].Sections)

	require.Len(t, reg.Themes, 2)
	assert.Equal(t, "K-Pop", reg.Themes[0].Title)
	assert.Equal(t, "space", reg.Themes[1].Title, "title defaults to the key name")

	// models.json holds a single object rather than a list.
	require.Len(t, reg.Models, 1)
	assert.Equal(t, "gpt-5-mini", reg.Models[0].ID)

	require.Len(t, reg.LevelSystems, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	dir := writeReferenceDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "models.json")))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestRegistry_Indices(t *testing.T) {
	reg, err := Load(writeReferenceDir(t))
	require.NoError(t, err)

	idx, ok := reg.DatasetIndex("grade5")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	item, ok := reg.Dataset(idx)
	require.True(t, ok)
	assert.Equal(t, "grade5", item.ID)

	_, ok = reg.DatasetIndex("missing")
	assert.False(t, ok)
	_, ok = reg.Dataset(99)
	assert.False(t, ok)

	idx, ok = reg.ThemeIndex("space")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = reg.ModelIndex("gpt-5-mini")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestRegistry_Levels(t *testing.T) {
	reg := &Registry{LevelSystems: DefaultLevelSystems()}

	si, li, ok := reg.LevelIndex("fp", "P")
	require.True(t, ok)
	system, level, ok := reg.Level(si, li)
	require.True(t, ok)
	assert.Equal(t, "fp", system)
	assert.Equal(t, "P", level)

	si, li, ok = reg.LevelIndex("grade", "12")
	require.True(t, ok)
	assert.Equal(t, 1, si)
	assert.Equal(t, 11, li)

	_, _, ok = reg.LevelIndex("grade", "13")
	assert.False(t, ok)
	_, _, ok = reg.LevelIndex("lexile", "650")
	assert.False(t, ok)
	_, _, ok = reg.Level(0, 26)
	assert.False(t, ok)
}

func TestRegistry_MaxSections(t *testing.T) {
	reg := &Registry{}
	assert.Equal(t, 15, reg.MaxSections(Item{ID: "d", Sections: 15}))
	assert.Equal(t, DefaultSections, reg.MaxSections(Item{ID: "d"}))
}
