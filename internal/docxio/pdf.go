package docxio

import (
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFPages returns the page count of the PDF at path.
func PDFPages(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// ReadPDFPages is PDFPages for a stream.
func ReadPDFPages(r io.Reader) (int, error) {
	tmp, size, cleanup, err := spool(r, "thesisfmt-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	defer cleanup()

	reader, err := pdflib.NewReader(tmp, size)
	if err != nil {
		return 0, fmt.Errorf("%w: parse pdf: %w", ErrUnreadableSource, err)
	}
	return reader.NumPage(), nil
}
