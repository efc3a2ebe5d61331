package pipeline

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homework-hero/internal/cache"
	"homework-hero/internal/dataset"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/models"
	"homework-hero/internal/reference"
	"homework-hero/internal/render"
)

const testDataset = `{
  "sections": [
    {
      "section": 3,
      "entries": [
        {"word": "orbit", "part_of_speech": "noun", "definition": "the path of one body around another"},
        {"word": "vast", "part_of_speech": "adjective", "definition": "very great in size"},
        {"word": "credit", "part_of_speech": "verb", "definition": "to believe or trust"},
        {"word": "drift", "part_of_speech": "verb", "definition": "to move slowly with no direction"}
      ]
    }
  ]
}`

// fakeGenerator answers every entry by checksum and counts invocations, so
// tests can assert which cache layer absorbed a request.
type fakeGenerator struct {
	calls int
	fail  bool
}

func (g *fakeGenerator) Generate(ctx context.Context, doc *models.BuildDocument, systemPrompt, themeContext string) (*models.SentenceResponse, error) {
	g.calls++
	if g.fail {
		return nil, &llm.GenerationError{Provider: "fake", Model: doc.Model, Message: "forced failure"}
	}
	items := make([]models.SentenceItem, len(doc.Data))
	for i, be := range doc.Data {
		items[i] = models.SentenceItem{Checksum: be.Checksum, Sentence: "The ### was all about " + be.Word + "."}
	}
	return &models.SentenceResponse{
		Subtitle:    "Sentences For Section Three",
		DocChecksum: doc.DocChecksum,
		Data:        items,
	}, nil
}

type testEnv struct {
	orch       *Orchestrator
	gen        *fakeGenerator
	responses  *cache.Store
	worksheets *cache.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	datasetsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(datasetsDir, "grade5.json"), []byte(testDataset), 0o644))

	themesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "space.txt"), []byte("Rockets, planets, moons."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "kpop.txt"), []byte("Idols, fans, concerts."), 0o644))

	reg := &reference.Registry{
		Datasets:     []reference.Item{{ID: "grade5", Sections: 15}},
		Themes:       []reference.Item{{ID: "space"}, {ID: "kpop"}},
		Models:       []reference.Item{{ID: "gpt-x"}},
		LevelSystems: reference.DefaultLevelSystems(),
	}

	gen := &fakeGenerator{}
	responses := cache.NewStore(t.TempDir())
	worksheets := cache.NewStore(t.TempDir())

	orch := New(Options{
		Codec:          identifier.NewCodec(reg),
		Datasets:       dataset.NewFileStore(datasetsDir),
		Generator:      gen,
		Renderer:       render.NewRenderer("http://cindysoftware.com"),
		Responses:      responses,
		Worksheets:     worksheets,
		PromptTemplate: "You write vocabulary sentences at {reading_level}.",
		ThemesDir:      themesDir,
	})

	return &testEnv{orch: orch, gen: gen, responses: responses, worksheets: worksheets}
}

func testRequest() *models.Request {
	return &models.Request{
		Dataset:      "grade5",
		ReadingLevel: models.ReadingLevel{System: "grade", Level: "2"},
		Section:      3,
		Theme:        "space",
		Model:        "gpt-x",
		Sequence:     7,
	}
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestGenerate_ColdRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	assert.Len(t, result.WorksheetID, 16)
	assert.True(t, bytes.HasPrefix(result.PDF, []byte("%PDF-")))
	assert.False(t, result.PDFFromCache)
	assert.False(t, result.ResponseFromCache)
	assert.Equal(t, 1, env.gen.calls)

	// Both cache layers are populated by the run.
	doc, err := env.orch.ExtractDocument(ctx, testRequest())
	require.NoError(t, err)
	assert.True(t, env.responses.Exists(cache.ResponseKey(doc)))
	assert.True(t, env.worksheets.Exists(cache.WorksheetKeyFromDocument(doc)))
}

func TestGenerate_PDFShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	second, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	assert.True(t, second.PDFFromCache)
	assert.Equal(t, first.WorksheetID, second.WorksheetID)
	assert.Equal(t, first.PDF, second.PDF)
	assert.Equal(t, 1, env.gen.calls, "a cached PDF must not trigger generation")
}

func TestGenerate_ResponseReuseAcrossThemes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	req := testRequest()
	req.Theme = "kpop"
	second, err := env.orch.Generate(ctx, req)
	require.NoError(t, err)

	// Same vocabulary, different theme: new worksheet, but the AI
	// response is reused so the generator is never called again.
	assert.NotEqual(t, first.WorksheetID, second.WorksheetID)
	assert.False(t, second.PDFFromCache)
	assert.True(t, second.ResponseFromCache)
	assert.Equal(t, 1, env.gen.calls)
}

func TestGenerate_ResponseReuseAcrossSequences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	req := testRequest()
	req.Sequence = 8
	second, err := env.orch.Generate(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.ResponseFromCache)
	assert.False(t, second.PDFFromCache)
	assert.Equal(t, 1, env.gen.calls)
}

func TestGenerate_FailureLeavesNoArtifacts(t *testing.T) {
	env := newTestEnv(t)
	env.gen.fail = true

	_, err := env.orch.Generate(context.Background(), testRequest())
	var genErr *llm.GenerationError
	require.ErrorAs(t, err, &genErr)

	assert.Zero(t, countFiles(t, env.responses.Root()))
	assert.Zero(t, countFiles(t, env.worksheets.Root()))
}

func TestGenerate_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)
	second, err := env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	assert.Equal(t, first.PDF, second.PDF)
	assert.Equal(t, 1, countFiles(t, env.responses.Root()))
	assert.Equal(t, 1, countFiles(t, env.worksheets.Root()))
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		field  string
		mutate func(req *models.Request)
	}{
		{"missing dataset", "source_dataset", func(r *models.Request) { r.Dataset = "" }},
		{"missing level", "reading_level", func(r *models.Request) { r.ReadingLevel.Level = "" }},
		{"missing system", "reading_level", func(r *models.Request) { r.ReadingLevel.System = "" }},
		{"zero section", "section", func(r *models.Request) { r.Section = 0 }},
		{"missing theme", "theme", func(r *models.Request) { r.Theme = "" }},
		{"missing model", "model", func(r *models.Request) { r.Model = "" }},
		{"negative seed", "seed", func(r *models.Request) { r.Sequence = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			tc.mutate(req)
			err := env.orch.Validate(req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}

	require.NoError(t, env.orch.Validate(testRequest()))
}

func TestIdentify_SuppliedWorksheetID(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.orch.Identify(testRequest())
	require.NoError(t, err)

	req := testRequest()
	req.WorksheetID = id.String()
	same, err := env.orch.Identify(req)
	require.NoError(t, err)
	assert.Equal(t, id, same)

	// A supplied identifier that decodes to different parameters is
	// rejected rather than trusted.
	mismatched := testRequest()
	mismatched.Sequence = 8
	mismatched.WorksheetID = id.String()
	_, err = env.orch.Identify(mismatched)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "worksheet_id", validationErr.Field)
}

func TestExtractDocument(t *testing.T) {
	env := newTestEnv(t)

	doc, err := env.orch.ExtractDocument(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "build_request", doc.Type)
	assert.Len(t, doc.DocChecksum, 16)
	require.Len(t, doc.Data, 4)
	for _, be := range doc.Data {
		assert.NotEmpty(t, be.Key)
		assert.Len(t, be.Checksum, 16)
		assert.Nil(t, be.Output)
	}
	assert.Equal(t, defaultHeader, doc.Metadata.Header)

	// The checksum depends on the vocabulary alone, not on theme or seed.
	req := testRequest()
	req.Theme = "kpop"
	req.Sequence = 99
	other, err := env.orch.ExtractDocument(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, doc.DocChecksum, other.DocChecksum)
	assert.NotEqual(t, doc.WorksheetID, other.WorksheetID)
}

func TestExtractDocument_MetadataOverrides(t *testing.T) {
	env := newTestEnv(t)

	req := testRequest()
	req.Metadata = &models.RequestMetadata{Header: "Custom Header"}
	doc, err := env.orch.ExtractDocument(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Custom Header", doc.Metadata.Header)
	assert.Equal(t, defaultFooter, doc.Metadata.Footer)
	assert.Equal(t, defaultAnswerKeyFooter, doc.Metadata.AnswerKeyFooter)
}

func TestLookupDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var notFound *cache.NotFoundError
	_, err := env.orch.LookupDocument(ctx, testRequest())
	require.ErrorAs(t, err, &notFound)
	assert.Zero(t, env.gen.calls, "lookup must never invoke the generator")

	_, err = env.orch.Generate(ctx, testRequest())
	require.NoError(t, err)

	doc, err := env.orch.LookupDocument(ctx, testRequest())
	require.NoError(t, err)
	require.NotNil(t, doc.Output)
	for _, be := range doc.Data {
		require.NotNil(t, be.Output)
		assert.NotEmpty(t, be.Output.Sentence)
	}
	assert.Equal(t, 1, env.gen.calls)
}

func TestGenerateSentences_IgnoresCorruptCachedResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.orch.ExtractDocument(ctx, testRequest())
	require.NoError(t, err)
	require.NoError(t, env.responses.Put(cache.ResponseKey(doc), []byte("not json")))

	fromCache, err := env.orch.GenerateSentences(ctx, doc)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, env.gen.calls)
}
