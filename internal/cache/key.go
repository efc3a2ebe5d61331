package cache

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"homework-hero/internal/models"
)

// Key addresses one artifact in a store. Every component becomes one
// segment of a nested path; Leaf is either a content checksum or a
// worksheet identifier. Theme may be empty, in which case its segment is
// omitted: AI responses are keyed independently of theme so a theme change
// that leaves the vocabulary untouched reuses the cached response.
type Key struct {
	Dataset      string
	ReadingLevel models.ReadingLevel
	Section      int
	Theme        string
	Model        string
	Leaf         string
	Ext          string
}

// ResponseKey builds the key for a cached AI-response document.
func ResponseKey(doc *models.BuildDocument) Key {
	return Key{
		Dataset:      doc.Dataset,
		ReadingLevel: doc.ReadingLevel,
		Section:      doc.Section,
		Model:        doc.Model,
		Leaf:         doc.DocChecksum,
		Ext:          "json",
	}
}

// WorksheetKey builds the key for a rendered worksheet PDF.
func WorksheetKey(req *models.Request, worksheetID string) Key {
	return Key{
		Dataset:      req.Dataset,
		ReadingLevel: req.ReadingLevel,
		Section:      req.Section,
		Theme:        req.Theme,
		Model:        req.Model,
		Leaf:         worksheetID,
		Ext:          "pdf",
	}
}

// WorksheetKeyFromDocument builds the PDF key for a build document.
func WorksheetKeyFromDocument(doc *models.BuildDocument) Key {
	return Key{
		Dataset:      doc.Dataset,
		ReadingLevel: doc.ReadingLevel,
		Section:      doc.Section,
		Theme:        doc.Theme,
		Model:        doc.Model,
		Leaf:         doc.WorksheetID,
		Ext:          "pdf",
	}
}

func (k Key) segments() []string {
	segs := []string{
		k.Dataset,
		k.ReadingLevel.PathSegment(),
		strconv.Itoa(k.Section),
	}
	if k.Theme != "" {
		segs = append(segs, k.Theme)
	}
	segs = append(segs, k.Model, k.Leaf+"."+k.Ext)
	return segs
}

// Path returns the store-relative location of the key.
func (k Key) Path() string {
	return filepath.Join(k.segments()...)
}

func (k Key) String() string {
	return strings.Join(k.segments(), "/")
}

// validate rejects keys whose segments would escape the store hierarchy.
func (k Key) validate() error {
	for _, seg := range k.segments() {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return fmt.Errorf("invalid key segment %q", seg)
		}
	}
	if k.Leaf == "" {
		return fmt.Errorf("key has no leaf")
	}
	return nil
}
