// Package reference loads the registries that define which datasets, themes,
// models and reading levels a deployment knows about. Registry order is
// append-only: the identifier codec derives stable indices from it.
package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"
)

// Item describes one registered dataset, theme or model.
type Item struct {
	ID         string `json:"key_name"`
	Title      string `json:"title"`
	TitleAbbr  string `json:"title_abbr,omitempty"`
	Sections   int    `json:"sections,omitempty"`
	CSSClass   string `json:"css_class,omitempty"`
	UITitle    string `json:"ui_title,omitempty"`
	UISubtitle string `json:"ui_subtitle,omitempty"`
}

// LevelSystem describes one reading-level system and its ordered levels.
type LevelSystem struct {
	ID     string   `json:"id"`
	Levels []string `json:"levels"`
}

// Registry holds the loaded reference data.
type Registry struct {
	Datasets     []Item
	Themes       []Item
	Models       []Item
	LevelSystems []LevelSystem
}

// DefaultSections bounds the section number when a dataset does not declare
// its own section count.
const DefaultSections = 255

// DefaultLevelSystems returns the built-in reading-level systems:
// Fountas & Pinnell letters and numeric grade levels.
func DefaultLevelSystems() []LevelSystem {
	fp := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		fp = append(fp, string(c))
	}
	grades := make([]string, 0, 12)
	for g := 1; g <= 12; g++ {
		grades = append(grades, strconv.Itoa(g))
	}
	return []LevelSystem{
		{ID: "fp", Levels: fp},
		{ID: "grade", Levels: grades},
	}
}

// Load reads source_datasets.json, themes.json and models.json from dir.
// Each file holds either a single object or a list of objects with at least
// a "key_name" field; entries without one are skipped.
func Load(dir string) (*Registry, error) {
	datasets, err := loadItems(filepath.Join(dir, "source_datasets.json"))
	if err != nil {
		return nil, err
	}
	themes, err := loadItems(filepath.Join(dir, "themes.json"))
	if err != nil {
		return nil, err
	}
	modelItems, err := loadItems(filepath.Join(dir, "models.json"))
	if err != nil {
		return nil, err
	}

	return &Registry{
		Datasets:     datasets,
		Themes:       themes,
		Models:       modelItems,
		LevelSystems: DefaultLevelSystems(),
	}, nil
}

func loadItems(path string) ([]Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file %s: %w", path, err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		// Allow a single object instead of a list.
		var single Item
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("failed to parse reference file %s: %w", path, err)
		}
		items = []Item{single}
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if item.Title == "" {
			item.Title = item.ID
		}
		kept = append(kept, item)
	}
	return kept, nil
}

func indexOf(items []Item, id string) (int, bool) {
	for i, item := range items {
		if item.ID == id {
			return i, true
		}
	}
	return 0, false
}

// DatasetIndex returns the stable index of a dataset ID.
func (r *Registry) DatasetIndex(id string) (int, bool) { return indexOf(r.Datasets, id) }

// ThemeIndex returns the stable index of a theme ID.
func (r *Registry) ThemeIndex(id string) (int, bool) { return indexOf(r.Themes, id) }

// ModelIndex returns the stable index of a model ID.
func (r *Registry) ModelIndex(id string) (int, bool) { return indexOf(r.Models, id) }

// Dataset returns the dataset item at index.
func (r *Registry) Dataset(i int) (Item, bool) {
	if i < 0 || i >= len(r.Datasets) {
		return Item{}, false
	}
	return r.Datasets[i], true
}

// Theme returns the theme item at index.
func (r *Registry) Theme(i int) (Item, bool) {
	if i < 0 || i >= len(r.Themes) {
		return Item{}, false
	}
	return r.Themes[i], true
}

// Model returns the model item at index.
func (r *Registry) Model(i int) (Item, bool) {
	if i < 0 || i >= len(r.Models) {
		return Item{}, false
	}
	return r.Models[i], true
}

// LevelIndex returns the indices of a reading-level system and level.
func (r *Registry) LevelIndex(system, level string) (sysIdx, lvlIdx int, ok bool) {
	for si, sys := range r.LevelSystems {
		if sys.ID != system {
			continue
		}
		for li, lvl := range sys.Levels {
			if lvl == level {
				return si, li, true
			}
		}
		return 0, 0, false
	}
	return 0, 0, false
}

// Level returns the system and level IDs at the given indices.
func (r *Registry) Level(sysIdx, lvlIdx int) (system, level string, ok bool) {
	if sysIdx < 0 || sysIdx >= len(r.LevelSystems) {
		return "", "", false
	}
	sys := r.LevelSystems[sysIdx]
	if lvlIdx < 0 || lvlIdx >= len(sys.Levels) {
		return "", "", false
	}
	return sys.ID, sys.Levels[lvlIdx], true
}

// MaxSections returns the section bound for a dataset.
func (r *Registry) MaxSections(dataset Item) int {
	if dataset.Sections > 0 {
		return dataset.Sections
	}
	return DefaultSections
}
