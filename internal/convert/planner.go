package convert

import "math"

// Density policy constants, in PDF points and dots per inch.
const (
	// AssumedPageWidthPt is the width used when the page size is unknown (A4).
	AssumedPageWidthPt = 595.0
	// LargePageThresholdPt marks pages wide enough to warrant their own DPI.
	LargePageThresholdPt = 800.0
	// MaxDPI caps rasterization density regardless of the requested width.
	MaxDPI = 200

	pointsPerInch = 72.0
)

// PlanDensity picks the rasterization DPI that makes a page roughly
// targetWidth pixels wide. referenceWidthPt <= 0 means unknown. The result is
// in [1, MaxDPI].
func PlanDensity(targetWidth int, referenceWidthPt float64) int {
	dpi := int(math.Round(float64(targetWidth) / AssumedPageWidthPt * pointsPerInch))

	if referenceWidthPt > LargePageThresholdPt {
		dpi = int(math.Round(float64(targetWidth) / referenceWidthPt * pointsPerInch))
	}

	return max(1, min(dpi, MaxDPI))
}
