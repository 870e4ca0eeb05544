package cover

import (
	"strconv"
	"strings"
)

// UniqueVisualElements are five independent sub-choices that keep covers of
// the same category apart.
type UniqueVisualElements struct {
	ColorVariation   string
	SpecificElements string
	LayoutPattern    string
	Signature        string
	ThemeVariation   string
}

// segmentOffsets are the hex offsets of the two-digit fingerprint slices that
// seed each unique element, in field order.
var segmentOffsets = [5]int{0, 2, 4, 6, 1}

// SelectStyle picks the style variant for the category by fingerprint.
func SelectStyle(category Category, fp string) StyleVariant {
	styles := mustTables().table(category).Styles
	return styles[fingerprintIndex(fp)%uint64(len(styles))]
}

// SelectPalette picks the color palette for the category by fingerprint.
func SelectPalette(category Category, fp string) ColorPalette {
	palettes := mustTables().table(category).Palettes
	return palettes[fingerprintIndex(fp)%uint64(len(palettes))]
}

// SelectUniqueElements picks each unique element from its own fingerprint slice.
func SelectUniqueElements(category Category, fp string) UniqueVisualElements {
	opts := mustTables().table(category).Unique
	padded := fp
	if len(padded) < 8 {
		padded = strings.Repeat("0", 8-len(padded)) + padded
	}
	seg := func(i int) int {
		off := segmentOffsets[i]
		v, err := strconv.ParseUint(padded[off:off+2], 16, 8)
		if err != nil {
			return 0
		}
		return int(v) % 100
	}
	at := func(list []string, i int) string {
		return list[seg(i)%len(list)]
	}
	return UniqueVisualElements{
		ColorVariation:   at(opts.ColorVariations, 0),
		SpecificElements: at(opts.SpecificElements, 1),
		LayoutPattern:    at(opts.LayoutPatterns, 2),
		Signature:        at(opts.Signatures, 3),
		ThemeVariation:   at(opts.ThemeVariations, 4),
	}
}

// Theme returns the thematic phrase for the category.
func Theme(category Category) string {
	return mustTables().table(category).Theme
}
