package models

// ReadingLevel identifies a leveling system and a level within it,
// e.g. {System: "fp", Level: "P"} or {System: "grade", Level: "4"}.
type ReadingLevel struct {
	System string `json:"system"`
	Level  string `json:"level"`
}

// PathSegment renders the reading level as a single datastore path segment.
func (r ReadingLevel) PathSegment() string {
	return r.System + "_" + r.Level
}

// RequestMetadata carries the presentation strings a worksheet is built with.
// Header, footer and answer-key footer may contain {variable} placeholders
// that the renderer expands.
type RequestMetadata struct {
	Header          string `json:"header"`
	Footer          string `json:"footer"`
	AnswerKeyFooter string `json:"answer_key_footer"`
}

// Request is the pipeline entry document. It is immutable once accepted.
// Sequence keeps the wire name "seed" used by the datastore layout.
type Request struct {
	Dataset      string           `json:"source_dataset"`
	ReadingLevel ReadingLevel     `json:"reading_level"`
	Section      int              `json:"section"`
	Theme        string           `json:"theme"`
	Model        string           `json:"model"`
	Sequence     int              `json:"seed"`
	WorksheetID  string           `json:"worksheet_id,omitempty"`
	Metadata     *RequestMetadata `json:"metadata,omitempty"`
}

// Entry is one vocabulary triple from a dataset section.
type Entry struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"part_of_speech"`
	Definition   string `json:"definition"`
	DefNum       int    `json:"def_num,omitempty"`
}

// ContentSet is the vocabulary extracted for one dataset section at one
// reading level, in the dataset's normalized order.
type ContentSet struct {
	Dataset      string       `json:"source_dataset"`
	Section      int          `json:"section"`
	ReadingLevel ReadingLevel `json:"reading_level"`
	Entries      []Entry      `json:"entries"`
}

// EntryOutput holds the generated sentence for one entry. The sentence
// contains "###" where the blank should appear.
type EntryOutput struct {
	Sentence string `json:"sentence"`
}

// BuildEntry is an Entry annotated with its correlation key and checksum,
// and, after generation, the model's sentence.
type BuildEntry struct {
	Entry
	Key      string       `json:"key"`
	Checksum string       `json:"checksum"`
	Output   *EntryOutput `json:"output,omitempty"`
}

// DocOutput holds document-level generation output.
type DocOutput struct {
	Subtitle string `json:"subtitle"`
}

// BuildDocument is the phase document passed between extraction, generation
// and rendering. DocChecksum is the content checksum that keys the
// AI-response cache layer.
type BuildDocument struct {
	Type         string          `json:"type"`
	Dataset      string          `json:"source_dataset"`
	ReadingLevel ReadingLevel    `json:"reading_level"`
	Section      int             `json:"section"`
	Theme        string          `json:"theme"`
	Model        string          `json:"model"`
	Sequence     int             `json:"seed"`
	WorksheetID  string          `json:"worksheet_id"`
	DocChecksum  string          `json:"doc_checksum"`
	Metadata     RequestMetadata `json:"metadata"`
	Data         []BuildEntry    `json:"data"`
	Output       *DocOutput      `json:"output,omitempty"`
}

// Entries returns the plain vocabulary triples of the document.
func (d *BuildDocument) Entries() []Entry {
	entries := make([]Entry, len(d.Data))
	for i, be := range d.Data {
		entries[i] = be.Entry
	}
	return entries
}

// SentenceItem is one generated sentence correlated to an entry checksum.
type SentenceItem struct {
	Checksum string `json:"checksum"`
	Sentence string `json:"sentence"`
}

// SentenceResponse is the structured document the generator must return.
type SentenceResponse struct {
	Subtitle    string         `json:"subtitle"`
	DocChecksum string         `json:"doc_checksum"`
	Data        []SentenceItem `json:"data"`
}

// WorksheetEntry is one fully resolved question on a worksheet.
type WorksheetEntry struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"part_of_speech"`
	Definition   string `json:"definition"`
	Sentence     string `json:"sentence"`
}

// Worksheet is the renderer's input: a build document flattened into
// presentation form.
type Worksheet struct {
	Header          string           `json:"header"`
	Footer          string           `json:"footer"`
	AnswerKeyFooter string           `json:"answer_key_footer"`
	Subtitle        string           `json:"subtitle"`
	Dataset         string           `json:"source_dataset"`
	ReadingLevel    ReadingLevel     `json:"reading_level"`
	Section         int              `json:"section"`
	Model           string           `json:"model"`
	Sequence        int              `json:"seed"`
	WorksheetID     string           `json:"worksheet_id"`
	Entries         []WorksheetEntry `json:"entries"`
}
