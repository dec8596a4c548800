package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// nativePDFPages reads the embedded text layer of a PDF, one string per
// page. Returns an error for encrypted or malformed files; the caller
// downgrades that to the OCR fallback.
func nativePDFPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w", i, err)
		}
		var b strings.Builder
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteString(" ")
				}
				b.WriteString(word.S)
			}
			b.WriteString("\n")
		}
		pages = append(pages, b.String())
	}
	return pages, nil
}
