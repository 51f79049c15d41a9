package extract

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		mimeType string
		want     Format
	}{
		{"pdf by mime", "report", "application/pdf", FormatPDF},
		{"pdf by extension uppercase", "report.PDF", "application/octet-stream", FormatPDF},
		{"docx by mime", "letter", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDocx},
		{"docx by extension", "letter.DOCX", "application/octet-stream", FormatDocx},
		{"plain text", "notes.txt", "text/plain", FormatPlainText},
		{"json is text", "data.json", "application/json", FormatPlainText},
		{"csv is text", "data.csv", "application/csv", FormatPlainText},
		{"image", "photo.jpg", "image/jpeg", FormatImage},
		{"unsupported binary", "data.bin", "application/octet-stream", FormatUnsupported},
		{"pdf wins over image mime", "scan.pdf", "image/png", FormatPDF},
		{"mime case insensitive", "notes.md", "TEXT/MARKDOWN", FormatPlainText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.fileName, tc.mimeType); got != tc.want {
				t.Fatalf("Classify(%q, %q) = %s, want %s", tc.fileName, tc.mimeType, got, tc.want)
			}
		})
	}
}
