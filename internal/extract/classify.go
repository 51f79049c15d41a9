package extract

import "strings"

// Format routes an uploaded file to an extraction strategy.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatDocx        Format = "docx"
	FormatPlainText   Format = "plain_text"
	FormatImage       Format = "image"
	FormatUnsupported Format = "unsupported"
)

const (
	pdfMIME  = "application/pdf"
	docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var textExactMIMEs = map[string]struct{}{
	"application/json": {},
	"application/csv":  {},
}

// Classify inspects the file name and declared MIME type and returns the
// extraction route. First match wins; both inputs are case-insensitive.
func Classify(fileName, mimeType string) Format {
	name := strings.ToLower(fileName)
	mime := strings.ToLower(mimeType)

	_, textExact := textExactMIMEs[mime]
	switch {
	case mime == pdfMIME || strings.HasSuffix(name, ".pdf"):
		return FormatPDF
	case mime == docxMIME || strings.HasSuffix(name, ".docx"):
		return FormatDocx
	case strings.HasPrefix(mime, "text/") || textExact:
		return FormatPlainText
	case strings.HasPrefix(mime, "image/"):
		return FormatImage
	}
	return FormatUnsupported
}
