// Package checksum derives content checksums for vocabulary sets. The
// checksum is a pure function of the triples themselves: two requests that
// extract the same words, parts of speech and definitions share a checksum
// regardless of theme, model or input order.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"homework-hero/internal/models"
)

// PrefixLen is the number of hex characters kept from the SHA-256 digest.
// 64 bits of digest; collisions are treated as negligible.
const PrefixLen = 16

func digestPrefix(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:PrefixLen]
}

// Content returns the checksum over the canonical serialization of a
// content set. Entries are sorted by word, part of speech, then
// definition, so input ordering does not affect the result even when one
// word carries several definitions. DefNum is a presentation detail and
// is excluded.
func Content(entries []models.Entry) string {
	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Word != sorted[j].Word {
			return sorted[i].Word < sorted[j].Word
		}
		if sorted[i].PartOfSpeech != sorted[j].PartOfSpeech {
			return sorted[i].PartOfSpeech < sorted[j].PartOfSpeech
		}
		return sorted[i].Definition < sorted[j].Definition
	})

	var sb strings.Builder
	for _, e := range sorted {
		sb.WriteString(e.Word)
		sb.WriteString("|")
		sb.WriteString(e.PartOfSpeech)
		sb.WriteString("|")
		sb.WriteString(e.Definition)
		sb.WriteString("\n")
	}
	return digestPrefix(sb.String())
}

// EntryKey builds the human-readable correlation key for one entry within
// a content set.
func EntryKey(contentChecksum string, e models.Entry) string {
	return strings.Join([]string{contentChecksum, e.Word, e.PartOfSpeech, e.Definition}, "|")
}

// Entry returns the correlation checksum for one entry. The generator must
// echo these back so its sentences can be matched to entries.
func Entry(contentChecksum string, e models.Entry) string {
	return digestPrefix(EntryKey(contentChecksum, e))
}
