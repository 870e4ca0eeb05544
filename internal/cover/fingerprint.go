package cover

import (
	"strconv"
	"unicode/utf16"
)

// Fingerprint derives the stable course signature used to seed every style
// choice. It is the classic 31-multiplier string hash evaluated over UTF-16
// code units with explicit 32-bit wrap-around, rendered as the hex of its
// absolute value, so the same course yields the same value in any runtime.
func Fingerprint(id, title, description string) string {
	var acc uint32
	for _, unit := range utf16.Encode([]rune(id + "-" + title + "-" + description)) {
		acc = acc*31 + uint32(unit)
	}
	signed := int32(acc)
	if signed >= 0 {
		return strconv.FormatUint(uint64(signed), 16)
	}
	// -2^31 has no positive int32 counterpart; widen before negating.
	return strconv.FormatUint(uint64(-int64(signed)), 16)
}

// fingerprintIndex parses up to the first eight hex digits of fp.
func fingerprintIndex(fp string) uint64 {
	if len(fp) > 8 {
		fp = fp[:8]
	}
	if fp == "" {
		return 0
	}
	v, err := strconv.ParseUint(fp, 16, 64)
	if err != nil {
		return 0
	}
	return v
}
