package claims

import (
	"regexp"
	"strconv"

	"fjacquet/claimflow/internal/sequence"
)

var referencePattern = regexp.MustCompile(`^[A-Z]+-(\d{8})-(\d{4})$`)

// ReferenceSequence returns the allocator scope and counter value encoded in an
// existing reference, so stores can continue numbering after imported claims.
func ReferenceSequence(ref string) (scope string, value int64, ok bool) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return sequence.ClaimScopePrefix + m[1], n, true
}
