package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Source records which strategy produced a text result.
const (
	SourcePlainText = "plain_text"
	SourceDocx      = "docx_text"
	SourceOCRImage  = "ocr_image"
	SourcePDFText   = "pdf_text"
	SourcePDFOCR    = "pdf_ocr"
)

// ocrLanguage tags OCR output; no language detection is performed.
const ocrLanguage = "en"

// Result is the output of a successful extraction. Text may be empty for
// images that simply contain no readable text.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Source   string `json:"source"`
}

// Pipeline classifies an uploaded file and runs the matching extraction
// strategy, falling back from the PDF text layer to rasterize-then-OCR.
// Pipelines hold no per-call state; concurrent use is fine.
type Pipeline struct {
	tools *Tools
}

// NewPipeline builds a pipeline. tools may be nil when the external OCR
// toolchain is disabled; OCR-dependent routes then report the capability as
// missing instead of attempting to run.
func NewPipeline(tools *Tools) *Pipeline {
	return &Pipeline{tools: tools}
}

func (p *Pipeline) Extract(ctx context.Context, fileName, mimeType string, payload []byte) (Result, error) {
	format := Classify(fileName, mimeType)
	log.Info().Str("file", fileName).Str("mime", mimeType).Str("route", string(format)).Msg("extraction route")

	switch format {
	case FormatPDF:
		return p.extractPDF(ctx, payload)
	case FormatDocx:
		return extractDocx(payload)
	case FormatPlainText:
		return extractPlainText(payload)
	case FormatImage:
		return p.extractImage(ctx, payload)
	default:
		return Result{}, errUnsupported()
	}
}

func (p *Pipeline) extractPDF(ctx context.Context, payload []byte) (Result, error) {
	if p.tools == nil {
		return Result{}, errMissingDependency("pdf_toolchain")
	}
	pdfPath, cleanup, err := spool(payload, "inference-*.pdf")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	text, err := p.tools.PDFTextLayer(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	if text != "" {
		return Result{Text: text, Source: SourcePDFText}, nil
	}

	// no text layer: rasterize and OCR page by page
	ocrText, err := p.tools.PDFRasterText(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	if ocrText == "" {
		return Result{}, errEmptyText()
	}
	return Result{Text: ocrText, Language: ocrLanguage, Source: SourcePDFOCR}, nil
}

func (p *Pipeline) extractImage(ctx context.Context, payload []byte) (Result, error) {
	if p.tools == nil {
		return Result{}, errMissingDependency("ocr")
	}
	imagePath, cleanup, err := spool(payload, "inference-*.img")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	text, err := p.tools.ImageText(ctx, imagePath)
	if err != nil {
		return Result{}, err
	}
	// Many photos naturally contain no readable text; an empty OCR result is
	// a valid extraction, not a failure.
	return Result{Text: strings.TrimSpace(text), Language: ocrLanguage, Source: SourceOCRImage}, nil
}

// spool writes the payload to a temp file for the external toolchain.
func spool(payload []byte, pattern string) (string, func(), error) {
	tempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("spool payload: %w", err)
	}
	name := tempFile.Name()
	cleanup := func() { _ = os.Remove(name) }
	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool payload: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool payload: %w", err)
	}
	return name, cleanup, nil
}
