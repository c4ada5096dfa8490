package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var (
	errNotPDF  = errors.New("file is not a PDF document")
	errNoPages = errors.New("PDF document has no pages")
)

// Inspector accepts only parseable PDF files with at least one page.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (i *Inspector) Inspect(data []byte) (err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return errNotPDF
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("parse pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return errNoPages
	}
	return nil
}
