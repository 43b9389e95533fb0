package printing

import "fmt"

// MaxMarginMM bounds each margin
const MaxMarginMM = 100

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left int) (Margins, error) {
	m := Margins{Top: top, Right: right, Bottom: bottom, Left: left}
	if err := m.Validate(); err != nil {
		return Margins{}, err
	}
	return m, nil
}

// Validate checks that every margin is within [0, MaxMarginMM]
func (m Margins) Validate() error {
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: margins cannot be negative", ErrInvalidMargins)
	}
	if m.Top > MaxMarginMM || m.Right > MaxMarginMM || m.Bottom > MaxMarginMM || m.Left > MaxMarginMM {
		return fmt.Errorf("%w: margins cannot exceed %dmm", ErrInvalidMargins, MaxMarginMM)
	}
	return nil
}

// DefaultMargins returns the default page margins
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Vertical is the sum of top and bottom margins
func (m Margins) Vertical() int {
	return m.Top + m.Bottom
}

// Horizontal is the sum of left and right margins
func (m Margins) Horizontal() int {
	return m.Left + m.Right
}

// CSS renders the margins as a CSS shorthand value
func (m Margins) CSS() string {
	return fmt.Sprintf("%dmm %dmm %dmm %dmm", m.Top, m.Right, m.Bottom, m.Left)
}
