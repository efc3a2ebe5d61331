package llm

import (
	"fmt"
	"sort"
	"strings"

	"homework-hero/internal/models"
)

// CorrelateResponse matches a sentence response back onto the document's
// entries by checksum and fills in their outputs. Every entry must be
// answered exactly once, the document checksum must be echoed back, and
// the response may not invent entries. Any violation invalidates the
// whole response.
func CorrelateResponse(doc *models.BuildDocument, resp *models.SentenceResponse) error {
	if resp.DocChecksum != doc.DocChecksum {
		return fmt.Errorf("doc_checksum mismatch: request=%s response=%s", doc.DocChecksum, resp.DocChecksum)
	}

	byChecksum := make(map[string]models.SentenceItem, len(resp.Data))
	for _, item := range resp.Data {
		if _, dup := byChecksum[item.Checksum]; dup {
			return fmt.Errorf("duplicate checksum in response: %s", item.Checksum)
		}
		byChecksum[item.Checksum] = item
	}

	var missing []string
	seen := make(map[string]bool, len(doc.Data))
	for i := range doc.Data {
		entry := &doc.Data[i]
		if entry.Checksum == "" {
			return fmt.Errorf("request entry %q missing checksum", entry.Word)
		}
		seen[entry.Checksum] = true

		item, ok := byChecksum[entry.Checksum]
		if !ok {
			missing = append(missing, entry.Checksum)
			continue
		}
		entry.Output = &models.EntryOutput{Sentence: item.Sentence}
	}

	var extra []string
	for sum := range byChecksum {
		if !seen[sum] {
			extra = append(extra, sum)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing response for checksum(s): %s", strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("response contains unexpected checksum(s): %s", strings.Join(extra, ", "))
	}

	doc.Output = &models.DocOutput{Subtitle: resp.Subtitle}
	return nil
}
