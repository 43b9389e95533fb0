package printing

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA3            PaperSize = "A3"             // 297mm x 420mm
	PaperSizeA4            PaperSize = "A4"             // 210mm x 297mm
	PaperSizeA5            PaperSize = "A5"             // 148mm x 210mm
	PaperSizeLetter        PaperSize = "LETTER"         // 216mm x 279mm
	PaperSizeLegal         PaperSize = "LEGAL"          // 216mm x 356mm
	PaperSizeReceipt80MM   PaperSize = "RECEIPT_80MM"   // 80mm thermal receipt
	PaperSizeContinuous241 PaperSize = "CONTINUOUS_241" // 241mm continuous paper (dot matrix)
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA3, PaperSizeA4, PaperSizeA5, PaperSizeLetter, PaperSizeLegal,
		PaperSizeReceipt80MM, PaperSizeContinuous241:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the portrait paper dimensions in millimeters.
// Roll-fed paper has no fixed height and reports 0.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA3:
		return 297, 420
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeLetter:
		return 216, 279
	case PaperSizeLegal:
		return 216, 356
	case PaperSizeReceipt80MM:
		return 80, 0
	case PaperSizeContinuous241:
		return 241, 0
	default:
		return 210, 297
	}
}

// IsPaged returns false for roll-fed paper, which cannot be paginated
func (p PaperSize) IsPaged() bool {
	_, h := p.Dimensions()
	return h > 0
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{
		PaperSizeA3, PaperSizeA4, PaperSizeA5, PaperSizeLetter, PaperSizeLegal,
		PaperSizeReceipt80MM, PaperSizeContinuous241,
	}
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// PageDimensions returns the printable sheet size for a paper and orientation
func PageDimensions(paper PaperSize, orientation Orientation) (width, height int) {
	w, h := paper.Dimensions()
	if orientation == OrientationLandscape && h > 0 {
		return h, w
	}
	return w, h
}

// MarkerType is the kind of section banner a marker inserts
type MarkerType string

const (
	MarkerTypeCategory MarkerType = "category"
	MarkerTypeGroup    MarkerType = "group"
)

// IsValid checks if the MarkerType is a valid value
func (m MarkerType) IsValid() bool {
	return m == MarkerTypeCategory || m == MarkerTypeGroup
}

// ExportFormat is the output document format of an export
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatText ExportFormat = "txt"
)

// IsValid checks if the ExportFormat is a valid value
func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportFormatPDF, ExportFormatXLSX, ExportFormatText:
		return true
	}
	return false
}

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatPDF:
		return "application/pdf"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}
