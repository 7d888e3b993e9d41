package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// pdfText extracts the plain text stream of a PDF document.
func pdfText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs; convert that to an
	// error so one corrupt file cannot take down the whole aggregation.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	return buf.String(), nil
}
