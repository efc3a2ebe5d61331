// Package render lays out a worksheet as a PDF: a word bank and numbered
// fill-in-the-blank questions over two pages, followed by an answer key
// with a QR code linking back to the worksheet.
package render

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"homework-hero/internal/models"
)

// Layout and style constants, US Letter in points.
const (
	pageW = 612.0
	pageH = 792.0

	mLeft   = 0.65 * 72
	mRight  = 0.65 * 72
	mTop    = 0.80 * 72
	mBottom = 0.65 * 72

	titleSize    = 24.0
	subtitleSize = 13.0
	textSize     = 12.0
	labelSize    = 13.0
	wbSize       = 12.0

	lineHeight             = textSize + 6
	gapBetweenProblems     = 24.0
	extraSpaceBeforeFirstQ = 60.0

	contentW = pageW - mLeft - mRight
)

// blank is drawn in place of the "###" marker in generated sentences.
const blank = "______"

const instructions = "Fill in each blank with the correct word. Use each word as many times as shown in the Word Bank. " +
	"Don't forget to review your answers."

// RenderError reports a rendering failure caused by malformed worksheet
// input or a PDF engine error.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("render failed: %s", e.Reason)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer produces worksheet PDFs. Output is deterministic for a given
// worksheet: the question order derives from the sequence number and the
// document creation date is pinned, so re-rendering the same worksheet
// yields byte-identical artifacts.
type Renderer struct {
	// LinkBaseURL is the base for the QR link on the answer key,
	// e.g. "http://cindysoftware.com".
	LinkBaseURL string

	creationDate time.Time
}

// NewRenderer creates a renderer.
func NewRenderer(linkBaseURL string) *Renderer {
	return &Renderer{
		LinkBaseURL:  linkBaseURL,
		creationDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type question struct {
	word       string
	pos        string
	definition string
	sentence   string
}

// Render implements the rendering collaborator contract.
func (r *Renderer) Render(ws *models.Worksheet) ([]byte, error) {
	if len(ws.Entries) == 0 {
		return nil, &RenderError{Reason: "worksheet has no entries"}
	}
	for i, e := range ws.Entries {
		if e.Word == "" || e.Sentence == "" {
			return nil, &RenderError{Reason: fmt.Sprintf("entry %d missing word or sentence", i)}
		}
	}

	vars := presentationVars(ws)
	title := expandVars(ws.Header, vars)
	subtitle := ws.Subtitle
	if subtitle != "" {
		subtitle = fmt.Sprintf("Episode %d: %s", ws.Sequence, subtitle)
	}

	questions := shuffledQuestions(ws)
	wordCounts := computeWordCounts(questions)

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(r.creationDate)
	pdf.SetModificationDate(r.creationDate)
	pdf.SetAutoPageBreak(false, 0)

	// Wrap all question sentences up front so pagination can be measured.
	pdf.SetFont("Helvetica", "", textSize)
	wrapped := make([][]string, len(questions))
	for i, q := range questions {
		wrapped[i] = pdf.SplitText(q.sentence, contentW)
	}

	// Page 1: header, instructions, word bank, leading questions.
	pdf.AddPage()
	y := drawHeader(pdf, title, subtitle, true)
	y = drawWordBank(pdf, wordCounts, y)

	available := pageH - mBottom - y
	endIdx := 0
	for i := 1; i <= len(wrapped); i++ {
		if measureBlockHeight(wrapped, 0, i) <= available {
			endIdx = i
		} else {
			break
		}
	}
	_, nextNum := drawQuestions(pdf, wrapped, 0, endIdx, y, 1)
	vars["current_page"] = "1"
	drawFooter(pdf, ws.Footer, vars)

	// Page 2: remaining questions. The layout is fixed at two question
	// pages, so a remainder that cannot fit is an input error rather than
	// a silent overflow past the bottom margin.
	pdf.AddPage()
	y = drawHeader(pdf, title, subtitle, false)
	y += extraSpaceBeforeFirstQ
	if measureBlockHeight(wrapped, endIdx, len(wrapped)) > pageH-mBottom-y {
		return nil, &RenderError{Reason: fmt.Sprintf("%d questions do not fit the two-page layout", len(questions))}
	}
	drawQuestions(pdf, wrapped, endIdx, len(wrapped), y, nextNum)
	vars["current_page"] = "2"
	drawFooter(pdf, ws.Footer, vars)

	// Page 3: answer key.
	pdf.AddPage()
	drawAnswerKey(pdf, title, subtitle, questions)
	if err := r.drawAnswerKeyFooter(pdf, ws, vars); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Reason: "pdf engine error", Err: err}
	}
	return buf.Bytes(), nil
}

// shuffledQuestions normalizes the entries and orders them by the
// sequence-seeded permutation, so a worksheet always shuffles the same way.
func shuffledQuestions(ws *models.Worksheet) []question {
	rng := rand.New(rand.NewSource(int64(ws.Sequence)))
	order := rng.Perm(len(ws.Entries))

	questions := make([]question, len(ws.Entries))
	for i, idx := range order {
		e := ws.Entries[idx]
		questions[i] = question{
			word:       normalizeASCII(e.Word),
			pos:        normalizeASCII(e.PartOfSpeech),
			definition: normalizeASCII(e.Definition),
			sentence:   strings.ReplaceAll(normalizeASCII(e.Sentence), "###", blank),
		}
	}
	return questions
}

var asciiReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	"…", "...",
	"•", "-", "·", "-",
)

// normalizeASCII replaces smart punctuation so core PDF fonts render it.
func normalizeASCII(s string) string {
	return asciiReplacer.Replace(s)
}

func presentationVars(ws *models.Worksheet) map[string]string {
	return map[string]string{
		"section":        strconv.Itoa(ws.Section),
		"reading_system": ws.ReadingLevel.System,
		"reading_level":  ws.ReadingLevel.Level,
		"model":          ws.Model,
		"seed":           strconv.Itoa(ws.Sequence),
		"worksheet_id":   ws.WorksheetID,
		"total_pages":    "2",
	}
}

func expandVars(format string, vars map[string]string) string {
	out := format
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// guessBaseForm groups inflected forms for the word bank, e.g. "rigged"
// counts toward "rig".
func guessBaseForm(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if strings.HasSuffix(w, "ed") && len(w) >= 4 {
		base := w[:len(w)-2]
		if len(base) >= 2 && base[len(base)-1] == base[len(base)-2] {
			base = base[:len(base)-1]
		}
		return base
	}
	return w
}

type wordCount struct {
	label string
	count int
}

// computeWordCounts builds the word bank: usage counts grouped by guessed
// base form, labeled with the most common surface form, sorted by label.
func computeWordCounts(questions []question) []wordCount {
	baseCounts := make(map[string]int)
	formsForBase := make(map[string]map[string]int)

	for _, q := range questions {
		base := guessBaseForm(q.word)
		baseCounts[base]++
		if formsForBase[base] == nil {
			formsForBase[base] = make(map[string]int)
		}
		formsForBase[base][q.word]++
	}

	counts := make([]wordCount, 0, len(baseCounts))
	for base, cnt := range baseCounts {
		label, best := "", 0
		for form, n := range formsForBase[base] {
			if n > best || (n == best && form < label) {
				label, best = form, n
			}
		}
		counts = append(counts, wordCount{label: label, count: cnt})
	}

	sort.Slice(counts, func(i, j int) bool {
		return strings.ToLower(counts[i].label) < strings.ToLower(counts[j].label)
	})
	return counts
}

func centeredText(pdf *fpdf.Fpdf, text string, y float64) {
	pdf.Text((pageW-pdf.GetStringWidth(text))/2, y, text)
}

// drawHeader draws the centered title and subtitle, plus the instructions
// on the first page. Returns the next baseline y.
func drawHeader(pdf *fpdf.Fpdf, title, subtitle string, firstPage bool) float64 {
	y := mTop
	pdf.SetFont("Helvetica", "B", titleSize)
	centeredText(pdf, title, y)
	y += titleSize + 6

	if subtitle != "" {
		pdf.SetFont("Helvetica", "I", subtitleSize)
		centeredText(pdf, subtitle, y)
		y += subtitleSize + 16
	}

	if firstPage {
		pdf.SetFont("Helvetica", "", textSize)
		for _, line := range pdf.SplitText(instructions, contentW) {
			pdf.Text(mLeft, y, line)
			y += lineHeight
		}
		y += 8
	}
	return y
}

// drawWordBank draws the labeled word bank box with two columns sized to
// content. Returns the next baseline y with writing space added.
func drawWordBank(pdf *fpdf.Fpdf, counts []wordCount, y float64) float64 {
	pdf.SetFont("Helvetica", "B", labelSize)
	pdf.Text(mLeft, y, "Word Bank (number of uses):")
	y += labelSize + 8

	pdf.SetFont("Helvetica", "", wbSize)
	const (
		paddingLR = 10.0
		paddingTB = 10.0
		gap       = 24.0
	)

	splitIdx := (len(counts) + 1) / 2
	left, right := counts[:splitIdx], counts[splitIdx:]

	labelText := func(wc wordCount) string {
		return fmt.Sprintf("%s (%d)", wc.label, wc.count)
	}
	maxWidth := func(items []wordCount) float64 {
		w := 0.0
		for _, it := range items {
			if lw := pdf.GetStringWidth(labelText(it)); lw > w {
				w = lw
			}
		}
		return w
	}

	innerW := contentW - 2*paddingLR
	col1X := mLeft + paddingLR
	col2X := col1X + maxWidth(left) + gap
	if maxWidth(left)+gap+maxWidth(right) > innerW {
		col2X = col1X + (innerW-gap)/2 + gap
	}

	rows := len(left)
	if len(right) > rows {
		rows = len(right)
	}
	rowH := wbSize + 6
	boxH := 2*paddingTB + float64(rows)*rowH

	pdf.Rect(mLeft, y, contentW, boxH, "D")

	rowY := y + paddingTB + wbSize
	for i := 0; i < rows; i++ {
		if i < len(left) {
			pdf.Text(col1X, rowY+float64(i)*rowH, labelText(left[i]))
		}
		if i < len(right) {
			pdf.Text(col2X, rowY+float64(i)*rowH, labelText(right[i]))
		}
	}

	return y + boxH + extraSpaceBeforeFirstQ
}

// measureBlockHeight is the minimum height needed for questions
// [start, end) including inter-question gaps.
func measureBlockHeight(wrapped [][]string, start, end int) float64 {
	lines := 0
	for i := start; i < end; i++ {
		lines += len(wrapped[i])
	}
	return float64(lines)*lineHeight + float64(end-start)*gapBetweenProblems
}

// drawQuestions draws questions [start, end) with running numbers.
// Returns the next y and the next question number.
func drawQuestions(pdf *fpdf.Fpdf, wrapped [][]string, start, end int, y float64, startNum int) (float64, int) {
	pdf.SetFont("Helvetica", "", textSize)
	num := startNum
	for i := start; i < end; i++ {
		lines := wrapped[i]
		if len(lines) == 0 {
			pdf.Text(mLeft, y, fmt.Sprintf("%d)", num))
			y += lineHeight
		} else {
			pdf.Text(mLeft, y, fmt.Sprintf("%d) %s", num, lines[0]))
			y += lineHeight
			for _, line := range lines[1:] {
				pdf.Text(mLeft, y, line)
				y += lineHeight
			}
		}
		num++
		y += gapBetweenProblems
	}
	return y, num
}

func drawFooter(pdf *fpdf.Fpdf, format string, vars map[string]string) {
	if format == "" {
		return
	}
	pdf.SetFont("Helvetica", "", textSize-2)
	centeredText(pdf, expandVars(format, vars), pageH-mBottom/2)
}

// drawAnswerKey draws the third page: numbered bold answers with their
// definitions in a fixed column.
func drawAnswerKey(pdf *fpdf.Fpdf, title, subtitle string, questions []question) {
	y := mTop
	pdf.SetFont("Helvetica", "B", titleSize)
	centeredText(pdf, title+" (Answer Key)", y)
	y += titleSize + 6

	if subtitle != "" {
		pdf.SetFont("Helvetica", "I", subtitleSize)
		centeredText(pdf, subtitle, y)
		y += subtitleSize + 16
	}

	pdf.SetFont("Helvetica", "", textSize)
	pdf.Text(mLeft, y, "Answers:")
	y += textSize + 10

	// Fixed definition column so all definitions align.
	maxLabelW := 0.0
	for i, q := range questions {
		pdf.SetFont("Helvetica", "", textSize)
		w := pdf.GetStringWidth(fmt.Sprintf("%d) ", i+1))
		pdf.SetFont("Helvetica", "B", textSize)
		w += pdf.GetStringWidth(q.word)
		if w > maxLabelW {
			maxLabelW = w
		}
	}
	defX := mLeft + maxLabelW + 18
	defSize := textSize - 2

	for i, q := range questions {
		numText := fmt.Sprintf("%d) ", i+1)
		pdf.SetFont("Helvetica", "", textSize)
		pdf.Text(mLeft, y, numText)

		pdf.SetFont("Helvetica", "B", textSize)
		pdf.Text(mLeft+pdf.GetStringWidth(numText), y, q.word)

		pdf.SetFont("Helvetica", "I", defSize)
		pdf.Text(defX, y, fmt.Sprintf("  %s (%s)", q.definition, q.pos))

		y += textSize + 6
	}
}

// drawAnswerKeyFooter draws the answer-key footer plus the QR code that
// links to the worksheet and advertises the next episode.
func (r *Renderer) drawAnswerKeyFooter(pdf *fpdf.Fpdf, ws *models.Worksheet, vars map[string]string) error {
	if ws.WorksheetID != "" && r.LinkBaseURL != "" {
		link := fmt.Sprintf("%s/worksheets/%s", r.LinkBaseURL, ws.WorksheetID)
		png, err := qrcode.Encode(link, qrcode.Medium, 128)
		if err != nil {
			return &RenderError{Reason: "failed to encode QR code", Err: err}
		}

		const qrSize = 56.0
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("worksheet-qr", opts, bytes.NewReader(png))
		qrX, qrY := mLeft, pageH-mBottom-qrSize-8
		pdf.ImageOptions("worksheet-qr", qrX, qrY, qrSize, qrSize, false, opts, 0, link)

		caption := fmt.Sprintf("Get Episode %d", ws.Sequence+1)
		pdf.SetFont("Helvetica", "", textSize-2)
		capX := qrX + (qrSize-pdf.GetStringWidth(caption))/2
		if capX < mLeft {
			capX = mLeft
		}
		pdf.Text(capX, pageH-mBottom/2, caption)
	}

	drawFooter(pdf, ws.AnswerKeyFooter, vars)
	return nil
}
