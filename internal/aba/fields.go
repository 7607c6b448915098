package aba

import (
	"fmt"
	"strconv"
	"strings"
)

// padText left-justifies s in width columns, truncating on the right. Characters
// outside printable ASCII are replaced by a space.
func padText(s string, width int) string {
	b := make([]byte, 0, width)
	for _, r := range s {
		if len(b) == width {
			break
		}
		if r < 0x20 || r > 0x7e {
			r = ' '
		}
		b = append(b, byte(r))
	}
	for len(b) < width {
		b = append(b, ' ')
	}
	return string(b)
}

// padNumeric right-justifies digits in width columns with leading zeros, keeping the
// least significant digits when too long.
func padNumeric(digits string, width int) string {
	if len(digits) > width {
		return digits[len(digits)-width:]
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

func padAmount(cents int64, width int) string {
	return padNumeric(strconv.FormatInt(cents, 10), width)
}

func blanks(n int) string {
	return strings.Repeat(" ", n)
}

// normalizeBSB strips separators and returns the 6 digits of a routing number.
func normalizeBSB(bsb string) (string, error) {
	var b strings.Builder
	for _, r := range bsb {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ':
		default:
			return "", fmt.Errorf("BSB %q contains %q", bsb, r)
		}
	}
	if b.Len() != 6 {
		return "", fmt.Errorf("BSB %q must have 6 digits", bsb)
	}
	return b.String(), nil
}

// formatBSB renders a routing number in the canonical NNN-NNN form.
func formatBSB(bsb string) (string, error) {
	digits, err := normalizeBSB(bsb)
	if err != nil {
		return "", err
	}
	return digits[:3] + "-" + digits[3:], nil
}
