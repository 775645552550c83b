package models

// Legacy rows encoded the two match visibility flags as a bitmask. The
// current schema stores them as named boolean columns; the migrate command
// decodes old values with these helpers. The rule is exactly "bit set ⇔
// flag on".
const (
	legacyBitQuestionResults = 1 << 0
	legacyBitUserResults     = 1 << 1
)

// DecodeLegacyVisibility splits a legacy bitmask into the named flags.
func DecodeLegacyVisibility(mask uint) (showQuestionResults, showUserResults bool) {
	return mask&legacyBitQuestionResults != 0, mask&legacyBitUserResults != 0
}

// EncodeLegacyVisibility is the inverse, kept for round-trip checks against
// rows written by the old system.
func EncodeLegacyVisibility(showQuestionResults, showUserResults bool) uint {
	var mask uint
	if showQuestionResults {
		mask |= legacyBitQuestionResults
	}
	if showUserResults {
		mask |= legacyBitUserResults
	}
	return mask
}
