package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homework-hero/internal/models"
)

func correlationDoc() *models.BuildDocument {
	return &models.BuildDocument{
		DocChecksum: "fedcba9876543210",
		Data: []models.BuildEntry{
			{Entry: models.Entry{Word: "orbit"}, Checksum: "sum-orbit"},
			{Entry: models.Entry{Word: "vast"}, Checksum: "sum-vast"},
		},
	}
}

func correlationResponse() *models.SentenceResponse {
	return &models.SentenceResponse{
		Subtitle:    "A Trip Through Space",
		DocChecksum: "fedcba9876543210",
		Data: []models.SentenceItem{
			{Checksum: "sum-vast", Sentence: "The ### desert stretched for miles."},
			{Checksum: "sum-orbit", Sentence: "The satellite stayed in ### for years."},
		},
	}
}

func TestCorrelateResponse(t *testing.T) {
	doc := correlationDoc()
	require.NoError(t, CorrelateResponse(doc, correlationResponse()))

	require.NotNil(t, doc.Output)
	assert.Equal(t, "A Trip Through Space", doc.Output.Subtitle)
	require.NotNil(t, doc.Data[0].Output)
	assert.Equal(t, "The satellite stayed in ### for years.", doc.Data[0].Output.Sentence)
	require.NotNil(t, doc.Data[1].Output)
	assert.Equal(t, "The ### desert stretched for miles.", doc.Data[1].Output.Sentence)
}

func TestCorrelateResponse_DocChecksumMismatch(t *testing.T) {
	doc := correlationDoc()
	resp := correlationResponse()
	resp.DocChecksum = "0000000000000000"

	err := CorrelateResponse(doc, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc_checksum mismatch")
	assert.Nil(t, doc.Output)
}

func TestCorrelateResponse_DuplicateChecksum(t *testing.T) {
	doc := correlationDoc()
	resp := correlationResponse()
	resp.Data[1].Checksum = resp.Data[0].Checksum

	err := CorrelateResponse(doc, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate checksum")
}

func TestCorrelateResponse_MissingEntry(t *testing.T) {
	doc := correlationDoc()
	resp := correlationResponse()
	resp.Data = resp.Data[:1]

	err := CorrelateResponse(doc, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing response for checksum")
	assert.Contains(t, err.Error(), "sum-orbit")
}

func TestCorrelateResponse_ExtraEntry(t *testing.T) {
	doc := correlationDoc()
	resp := correlationResponse()
	resp.Data = append(resp.Data, models.SentenceItem{Checksum: "sum-phantom", Sentence: "..."})

	err := CorrelateResponse(doc, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected checksum")
	assert.Contains(t, err.Error(), "sum-phantom")
}

func TestCorrelateResponse_EntryWithoutChecksum(t *testing.T) {
	doc := correlationDoc()
	doc.Data[0].Checksum = ""

	err := CorrelateResponse(doc, correlationResponse())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing checksum")
}
