package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDocx concatenates non-empty paragraphs in document order, then each
// table's rows with cell texts joined by " | ".
func extractDocx(payload []byte) (Result, error) {
	doc, err := docx.Parse(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return Result{}, fmt.Errorf("parse docx: %w", err)
	}

	// paragraphs in document order first, then table contents
	var lines []string
	var tables []*docx.Table
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			if text := strings.TrimSpace(block.String()); text != "" {
				lines = append(lines, text)
			}
		case *docx.Table:
			tables = append(tables, block)
		}
	}
	for _, table := range tables {
		lines = append(lines, tableLines(table)...)
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return Result{}, errEmptyText()
	}
	return Result{Text: text, Source: SourceDocx}, nil
}

func tableLines(table *docx.Table) []string {
	var lines []string
	for _, row := range table.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, paragraph := range cell.Paragraphs {
				if text := strings.TrimSpace(paragraph.String()); text != "" {
					parts = append(parts, text)
				}
			}
			if cellText := strings.Join(parts, " "); cellText != "" {
				cells = append(cells, cellText)
			}
		}
		// fully empty rows are skipped
		if rowText := strings.TrimSpace(strings.Join(cells, " | ")); rowText != "" {
			lines = append(lines, rowText)
		}
	}
	return lines
}
