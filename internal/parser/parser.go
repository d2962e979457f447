package parser

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Page is the plain text of one document page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Loader reads a document from disk and returns its pages in order.
type Loader interface {
	Load(filePath string) ([]Page, error)
}

// PDFLoader extracts page text with github.com/ledongthuc/pdf.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(filePath string) (pages []Page, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// the pdf package panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF %s: %v", stat.Name(), r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Text: pageText})
	}
	return pages, nil
}
