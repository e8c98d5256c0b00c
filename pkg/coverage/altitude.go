package coverage

// Altitude band boundaries in feet.
const (
	bandLow  = 10000
	bandMid  = 25000
	bandHigh = 40000
)

// AltitudeBands is a histogram of aircraft by altitude, used by the
// statistics panel.
type AltitudeBands struct {
	// Below10k counts aircraft under 10,000 ft.
	Below10k int

	// From10kTo25k counts aircraft at or above 10,000 ft and under
	// 25,000 ft.
	From10kTo25k int

	// From25kTo40k counts aircraft at or above 25,000 ft and under
	// 40,000 ft.
	From25kTo40k int

	// Above40k counts aircraft at or above 40,000 ft.
	Above40k int

	// Unknown counts aircraft with no altitude data.
	Unknown int
}

// Add places one aircraft into its band. known is false when the
// aircraft has not reported an altitude.
func (b *AltitudeBands) Add(altitudeFt int, known bool) {
	switch {
	case !known:
		b.Unknown++
	case altitudeFt < bandLow:
		b.Below10k++
	case altitudeFt < bandMid:
		b.From10kTo25k++
	case altitudeFt < bandHigh:
		b.From25kTo40k++
	default:
		b.Above40k++
	}
}

// Total returns the number of aircraft counted.
func (b *AltitudeBands) Total() int {
	return b.Below10k + b.From10kTo25k + b.From25kTo40k + b.Above40k + b.Unknown
}
