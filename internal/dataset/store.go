// Package dataset loads vocabulary content sets. Extraction is
// deterministic: the same dataset, section and reading level always yield
// the same entries in the same order.
package dataset

import (
	"context"
	"fmt"

	"homework-hero/internal/models"
)

// Store loads the vocabulary for one section of a dataset.
type Store interface {
	LoadSection(ctx context.Context, dataset string, section int, level models.ReadingLevel) (*models.ContentSet, error)
}

// NotFoundError reports a dataset or section that does not exist.
type NotFoundError struct {
	Dataset string
	Section int
}

func (e *NotFoundError) Error() string {
	if e.Section > 0 {
		return fmt.Sprintf("section %d not found in dataset %q", e.Section, e.Dataset)
	}
	return fmt.Sprintf("dataset %q not found", e.Dataset)
}
