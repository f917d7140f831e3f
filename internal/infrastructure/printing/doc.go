// Package printing lays out and draws Kanban cards into PDF documents.
//
// This package contains:
// - TextFitter, a shrink-to-fit paragraph layout measured with the Go fonts
// - Canvas and Document, the drawing surface used by the renderer
// - PDFDocument, a Document implementation backed by gopdf
// - CardLayout and CardRenderer, which draw one card per page
//
// Example usage:
//
//	fitter, err := NewTextFitter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	renderer := NewCardRenderer(DefaultCardLayout(), fitter, qrcode.NewEncoder())
//
//	doc, err := NewPDFDocument(DefaultCardLayout().PageSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc.AddPage()
//	if err := renderer.Render(doc, card, Point{}); err != nil {
//	    log.Fatal(err)
//	}
//	data, err := doc.Finalize()
package printing
