// Package printing turns laid out print pages into export documents.
//
// The Exporter implements the domain ExportInvoker and dispatches on the
// requested format:
//
//   - pdf: pages are rendered to HTML from an embedded template, one section
//     per page, and printed by headless Chrome through chromedp
//   - xlsx: one worksheet with a manual page break after each page
//   - txt: one text table per page, separated by form feeds
//
// Pagination happens before export. Encoders never reflow rows, so every
// format keeps the page boundaries the user previewed.
//
// Example usage:
//
//	exporter, err := NewExporterFromConfig(cfg.Print, store, logger)
//	if err != nil {
//	    return err
//	}
//	defer exporter.Close()
//
//	result, err := exporter.Export(ctx, printing.ExportRequest{
//	    DatasetID: "budget-2026",
//	    Format:    printing.ExportFormatPDF,
//	    Pages:     pages,
//	    PaperSize: printing.PaperSizeA4,
//	})
package printing
