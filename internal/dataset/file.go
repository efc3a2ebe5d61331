package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"

	"homework-hero/internal/models"
)

// datasetFile is the on-disk dataset format: {dataset}.json holding an
// ordered list of sections.
type datasetFile struct {
	Sections []sectionEntry `json:"sections"`
}

type sectionEntry struct {
	Section int            `json:"section"`
	Entries []models.Entry `json:"entries"`
}

// FileStore serves content sets from dataset JSON files in a directory.
// Parsed files are memoized with a TTL so repeated requests against the
// same dataset do not reparse it.
type FileStore struct {
	dir    string
	parsed *gocache.Cache
}

// NewFileStore creates a store over dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		parsed: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// LoadSection implements Store. The reading level does not alter which
// entries a file-backed dataset yields; it is carried through on the
// content set.
func (s *FileStore) LoadSection(ctx context.Context, dataset string, section int, level models.ReadingLevel) (*models.ContentSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	df, err := s.load(dataset)
	if err != nil {
		return nil, err
	}

	for _, sec := range df.Sections {
		if sec.Section != section {
			continue
		}
		entries := make([]models.Entry, len(sec.Entries))
		copy(entries, sec.Entries)
		return &models.ContentSet{
			Dataset:      dataset,
			Section:      section,
			ReadingLevel: level,
			Entries:      entries,
		}, nil
	}
	return nil, &NotFoundError{Dataset: dataset, Section: section}
}

func (s *FileStore) load(dataset string) (*datasetFile, error) {
	if cached, ok := s.parsed.Get(dataset); ok {
		return cached.(*datasetFile), nil
	}

	path := filepath.Join(s.dir, dataset+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Dataset: dataset}
		}
		return nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}

	var df datasetFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	s.parsed.SetDefault(dataset, &df)
	return &df, nil
}
