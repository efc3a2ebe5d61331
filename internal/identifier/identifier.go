// Package identifier bit-packs worksheet request parameters into a compact
// 64-bit identifier. Encoding is a bijection over the registered domain:
// decoding an identifier reproduces the exact field values it was encoded
// from.
package identifier

import (
	"fmt"
	"strconv"

	"homework-hero/internal/models"
	"homework-hero/internal/reference"
)

// Bit widths, most significant first. They sum to 64.
const (
	versionBits  = 4
	datasetBits  = 8
	systemBits   = 2
	levelBits    = 6
	sectionBits  = 8
	themeBits    = 8
	modelBits    = 8
	sequenceBits = 20
)

// Bit offsets of each field within the packed value.
const (
	sequenceShift = 0
	modelShift    = sequenceShift + sequenceBits
	themeShift    = modelShift + modelBits
	sectionShift  = themeShift + themeBits
	levelShift    = sectionShift + sectionBits
	systemShift   = levelShift + levelBits
	datasetShift  = systemShift + systemBits
	versionShift  = datasetShift + datasetBits
)

// version is the only layout version in use; other version bits are
// reserved and rejected on decode.
const version = 1

// MaxSequence is the largest encodable episode sequence number.
const MaxSequence = 1<<sequenceBits - 1

// ID is a packed worksheet identifier.
type ID uint64

// String renders the identifier in its canonical 16-hex-char form.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Parse reads an identifier from its canonical hex form.
func Parse(s string) (ID, error) {
	if len(s) != 16 {
		return 0, &MalformedIdentifierError{Raw: s, Reason: "must be 16 hex characters"}
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, &MalformedIdentifierError{Raw: s, Reason: "not a hex value"}
	}
	return ID(v), nil
}

// Fields is the decoded form of a worksheet identifier.
type Fields struct {
	Dataset      string
	ReadingLevel models.ReadingLevel
	Section      int
	Theme        string
	Model        string
	Sequence     int
}

// FieldsFromRequest picks the identifier-relevant fields out of a request.
func FieldsFromRequest(req *models.Request) Fields {
	return Fields{
		Dataset:      req.Dataset,
		ReadingLevel: req.ReadingLevel,
		Section:      req.Section,
		Theme:        req.Theme,
		Model:        req.Model,
		Sequence:     req.Sequence,
	}
}

// Codec encodes and decodes worksheet identifiers against a registry.
// Registry order supplies the stable sub-field indices.
type Codec struct {
	reg *reference.Registry
}

// NewCodec creates a codec over the given registry.
func NewCodec(reg *reference.Registry) *Codec {
	return &Codec{reg: reg}
}

// Encode packs the fields into an identifier. Every field must be inside
// the registered enumeration and its allotted bit width.
func (c *Codec) Encode(f Fields) (ID, error) {
	datasetIdx, ok := c.reg.DatasetIndex(f.Dataset)
	if !ok {
		return 0, &InvalidFieldError{Field: "source_dataset", Value: f.Dataset, Reason: "not a registered dataset"}
	}
	if datasetIdx >= 1<<datasetBits {
		return 0, &InvalidFieldError{Field: "source_dataset", Value: f.Dataset, Reason: "registry index exceeds field width"}
	}

	sysIdx, lvlIdx, ok := c.reg.LevelIndex(f.ReadingLevel.System, f.ReadingLevel.Level)
	if !ok {
		return 0, &InvalidFieldError{Field: "reading_level", Value: f.ReadingLevel.PathSegment(), Reason: "not a registered reading level"}
	}
	if sysIdx >= 1<<systemBits || lvlIdx >= 1<<levelBits {
		return 0, &InvalidFieldError{Field: "reading_level", Value: f.ReadingLevel.PathSegment(), Reason: "registry index exceeds field width"}
	}

	dataset, _ := c.reg.Dataset(datasetIdx)
	if f.Section < 1 || f.Section > c.reg.MaxSections(dataset) || f.Section >= 1<<sectionBits {
		return 0, &InvalidFieldError{Field: "section", Value: f.Section, Reason: "outside the dataset's section range"}
	}

	themeIdx, ok := c.reg.ThemeIndex(f.Theme)
	if !ok {
		return 0, &InvalidFieldError{Field: "theme", Value: f.Theme, Reason: "not a registered theme"}
	}
	if themeIdx >= 1<<themeBits {
		return 0, &InvalidFieldError{Field: "theme", Value: f.Theme, Reason: "registry index exceeds field width"}
	}

	modelIdx, ok := c.reg.ModelIndex(f.Model)
	if !ok {
		return 0, &InvalidFieldError{Field: "model", Value: f.Model, Reason: "not a registered model"}
	}
	if modelIdx >= 1<<modelBits {
		return 0, &InvalidFieldError{Field: "model", Value: f.Model, Reason: "registry index exceeds field width"}
	}

	if f.Sequence < 0 || f.Sequence > MaxSequence {
		return 0, &InvalidFieldError{Field: "seed", Value: f.Sequence, Reason: "outside the sequence range"}
	}

	packed := uint64(version)<<versionShift |
		uint64(datasetIdx)<<datasetShift |
		uint64(sysIdx)<<systemShift |
		uint64(lvlIdx)<<levelShift |
		uint64(f.Section)<<sectionShift |
		uint64(themeIdx)<<themeShift |
		uint64(modelIdx)<<modelShift |
		uint64(f.Sequence)<<sequenceShift

	return ID(packed), nil
}

// Decode unpacks an identifier back into its fields. Identifiers that
// could not have been produced by Encode are rejected.
func (c *Codec) Decode(id ID) (Fields, error) {
	v := uint64(id)

	extract := func(shift, bits int) int {
		return int(v >> shift & (1<<bits - 1))
	}

	if extract(versionShift, versionBits) != version {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "reserved version bits"}
	}

	dataset, ok := c.reg.Dataset(extract(datasetShift, datasetBits))
	if !ok {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "dataset index out of range"}
	}

	system, level, ok := c.reg.Level(extract(systemShift, systemBits), extract(levelShift, levelBits))
	if !ok {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "reading level out of range"}
	}

	section := extract(sectionShift, sectionBits)
	if section < 1 || section > c.reg.MaxSections(dataset) {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "section out of range"}
	}

	theme, ok := c.reg.Theme(extract(themeShift, themeBits))
	if !ok {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "theme index out of range"}
	}

	model, ok := c.reg.Model(extract(modelShift, modelBits))
	if !ok {
		return Fields{}, &MalformedIdentifierError{Raw: id.String(), Reason: "model index out of range"}
	}

	return Fields{
		Dataset:      dataset.ID,
		ReadingLevel: models.ReadingLevel{System: system, Level: level},
		Section:      section,
		Theme:        theme.ID,
		Model:        model.ID,
		Sequence:     extract(sequenceShift, sequenceBits),
	}, nil
}
