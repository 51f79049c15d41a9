package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	doc := docx.New().WithDefaultTheme()
	for _, text := range paragraphs {
		doc.AddParagraph().AddText(text)
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("build docx: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxParagraphs(t *testing.T) {
	payload := buildDocx(t, "First paragraph", "", "Second paragraph")

	p := NewPipeline(nil)
	result, err := p.Extract(context.Background(), "letter.docx", "application/octet-stream", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != SourceDocx {
		t.Fatalf("expected docx provenance, got %q", result.Source)
	}
	if !strings.Contains(result.Text, "First paragraph") || !strings.Contains(result.Text, "Second paragraph") {
		t.Fatalf("paragraph text missing: %q", result.Text)
	}
}

func TestExtractDocxTableRendering(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Intro paragraph")
	table := doc.AddTable(3, 2, 0, nil)
	table.TableRows[0].TableCells[0].AddParagraph().AddText("Name")
	table.TableRows[0].TableCells[1].AddParagraph().AddText("Value")
	table.TableRows[0].TableCells[1].AddParagraph().AddText("42")
	// second row is left without any text, third has a single populated cell
	table.TableRows[2].TableCells[0].AddParagraph().AddText("alpha")
	doc.AddParagraph().AddText("Trailing paragraph")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("build docx: %v", err)
	}

	p := NewPipeline(nil)
	result, err := p.Extract(context.Background(), "table.docx", "application/octet-stream", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// paragraphs come first even when the table sits between them, cell
	// paragraphs join with a space, cells with " | ", empty rows vanish
	want := "Intro paragraph\nTrailing paragraph\nName | Value 42\nalpha"
	if result.Text != want {
		t.Fatalf("table rendering mismatch:\n got  %q\n want %q", result.Text, want)
	}
}

func TestExtractDocxEmpty(t *testing.T) {
	payload := buildDocx(t)

	p := NewPipeline(nil)
	_, err := p.Extract(context.Background(), "empty.docx", "application/octet-stream", payload)
	assertFailure(t, err, KindEmptyText, "")
}

func TestExtractDocxCorruptPayloadIsNotClassified(t *testing.T) {
	p := NewPipeline(nil)
	_, err := p.Extract(context.Background(), "broken.docx", "application/octet-stream", []byte("not a zip"))
	if err == nil {
		t.Fatalf("expected an error for a corrupt payload")
	}
	var failure *Failure
	if errors.As(err, &failure) {
		t.Fatalf("corrupt payload should surface as a plain error, got %v", failure)
	}
}
