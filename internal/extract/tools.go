package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ToolsConfig names the external binaries used for OCR and PDF handling.
// Fields may be bare names (resolved via PATH) or absolute paths.
type ToolsConfig struct {
	Tesseract string
	Pdftotext string
	Pdftoppm  string
	Language  string
	DPI       int
}

// Tools wraps the poppler/tesseract toolchain behind the Runner so tests can
// stub command execution. Binary availability is probed once per binary and
// memoized, rather than diagnosed from run failures at every call site.
type Tools struct {
	cfg      ToolsConfig
	runner   Runner
	lookPath func(string) (string, error)

	probeMu sync.Mutex
	probes  map[string]error
}

func NewTools(cfg ToolsConfig) *Tools {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Tools{
		cfg:      cfg,
		runner:   execRunner{},
		lookPath: exec.LookPath,
		probes:   make(map[string]error),
	}
}

// UseRunner injects a fake runner and disables the PATH probes.
// Intended for test setup only.
func (t *Tools) UseRunner(r Runner) {
	t.runner = r
	t.lookPath = func(string) (string, error) { return "", nil }
}

// probe reports whether binary is runnable, classifying absence under the
// toolchain name operators would install (e.g. "poppler", "tesseract").
func (t *Tools) probe(binary, toolchain string) error {
	t.probeMu.Lock()
	defer t.probeMu.Unlock()
	probeErr, done := t.probes[binary]
	if !done {
		if _, err := t.lookPath(binary); err != nil {
			probeErr = errMissingSystemDependency(toolchain)
		}
		t.probes[binary] = probeErr
	}
	return probeErr
}

// ImageText runs OCR over a single image file.
func (t *Tools) ImageText(ctx context.Context, imagePath string) (string, error) {
	if err := t.probe(t.cfg.Tesseract, "tesseract"); err != nil {
		return "", err
	}
	out, _, err := t.runner.Run(ctx, t.cfg.Tesseract, imagePath, "stdout", "-l", t.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// PDFTextLayer reads the embedded text layer, concatenating non-empty pages
// with a blank-line separator. An empty result means the document has no
// usable text layer (e.g. a scan).
func (t *Tools) PDFTextLayer(ctx context.Context, pdfPath string) (string, error) {
	if err := t.probe(t.cfg.Pdftotext, "poppler"); err != nil {
		return "", err
	}
	out, _, err := t.runner.Run(ctx, t.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", pdfPath, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds
	return joinNonEmpty(strings.Split(string(out), "\f")), nil
}

// PDFRasterText rasterizes each page to PNG and runs OCR over the results.
func (t *Tools) PDFRasterText(ctx context.Context, pdfPath string) (string, error) {
	if err := t.probe(t.cfg.Pdftoppm, "poppler"); err != nil {
		return "", err
	}
	if err := t.probe(t.cfg.Tesseract, "tesseract"); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "inference-pp-*")
	if err != nil {
		return "", fmt.Errorf("create raster dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	if _, _, err := t.runner.Run(ctx, t.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", t.cfg.DPI), "-png", pdfPath, prefix); err != nil {
		return "", errRenderFailed()
	}

	// pdftoppm names pages page-1.png, page-2.png, ...
	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", errRenderFailed()
	}

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		pageText, err := t.ImageText(ctx, page)
		if err != nil {
			return "", err
		}
		texts = append(texts, pageText)
	}
	return joinNonEmpty(texts), nil
}

func joinNonEmpty(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n\n")
}
