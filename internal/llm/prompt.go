package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"homework-hero/internal/models"
)

// DescribeReadingLevel renders a reading level as prose for the system
// prompt, e.g. "Fountas & Pinnell level P" or "4th-grade reading level".
func DescribeReadingLevel(level models.ReadingLevel) (string, error) {
	switch level.System {
	case "fp":
		return fmt.Sprintf("Fountas & Pinnell level %s", level.Level), nil
	case "grade":
		n, err := strconv.Atoi(level.Level)
		if err != nil {
			return "", fmt.Errorf("grade level %q is not numeric", level.Level)
		}
		return fmt.Sprintf("%s-grade reading level", ordinal(n)), nil
	default:
		return "", fmt.Errorf("unsupported reading_level system: %s", level.System)
	}
}

func ordinal(n int) string {
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			return fmt.Sprintf("%dst", n)
		}
	case 2:
		if n%100 != 12 {
			return fmt.Sprintf("%dnd", n)
		}
	case 3:
		if n%100 != 13 {
			return fmt.Sprintf("%drd", n)
		}
	}
	return fmt.Sprintf("%dth", n)
}

// ExpandSystemPrompt substitutes the {reading_level} placeholder in a raw
// prompt template.
func ExpandSystemPrompt(raw string, level models.ReadingLevel) (string, error) {
	desc, err := DescribeReadingLevel(level)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(raw, "{reading_level}", desc), nil
}

// LoadThemeContext reads {theme}.txt from the themes directory. An empty
// theme yields empty context.
func LoadThemeContext(themesDir, theme string) (string, error) {
	if theme == "" {
		return "", nil
	}
	path := filepath.Join(themesDir, theme+".txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read theme file %s: %w", path, err)
	}
	return string(raw), nil
}

// BuildUserInput constructs the user-level model input: the request
// document itself plus the raw theme content. The system prompt tells the
// model how to interpret both.
func BuildUserInput(doc *models.BuildDocument, themeContext string) (string, error) {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode request document: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("REQUEST JSON:\n")
	sb.Write(encoded)
	if themeContext != "" {
		sb.WriteString("\n\nTHEME:\n")
		sb.WriteString(themeContext)
	}
	return sb.String(), nil
}
