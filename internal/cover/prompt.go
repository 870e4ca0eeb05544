package cover

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"covergen/internal/domain"
)

const maxDescriptionRunes = 150

const (
	styleGuidance = "Style guidance: professional e-learning course cover, visually striking at thumbnail size, cohesive lighting, no clutter."
	avoidClause   = "Avoid: any text, letters, words, numbers, logos, watermarks, human faces, photorealistic people, blurry details, distorted shapes."
)

// PromptInput carries everything the composer needs for one course.
type PromptInput struct {
	CourseID    string
	Title       string
	Description string
	Fingerprint string
	Category    Category
	Palette     ColorPalette
	Style       StyleVariant
	Unique      UniqueVisualElements
	Keywords    []string
	Engine      domain.Engine
}

// Compose builds the generation prompt. Clauses keep a fixed order and empty
// clauses are dropped.
func Compose(in PromptInput) string {
	sig := in.Fingerprint
	if len(sig) > 6 {
		sig = sig[:6]
	}
	title := strings.TrimSpace(Plaintext(in.Title))
	clauses := []string{
		fmt.Sprintf("[course:%s|sig:%s]", in.CourseID, sig),
		nonEmpty("Create a %s cover image", in.Style.Style),
		nonEmpty("for the online course %q.", title),
		descriptionClause(in.Description),
		nonEmpty("Visual focus on: %s.", strings.Join(in.Keywords, ", ")),
		colorClause(in.Palette, in.Unique.ColorVariation),
		visualClause(in.Style.Elements, in.Unique.SpecificElements),
		layoutClause(in.Style.Composition, in.Unique.LayoutPattern),
		nonEmpty("Unique signature: %s.", in.Unique.Signature),
		formatClause(in.Engine),
		themeClause(in.Category, in.Unique.ThemeVariation),
		styleGuidance,
		avoidClause,
		fmt.Sprintf("Ensure this cover is visually distinct and unique to course %s.", in.CourseID),
	}
	parts := clauses[:0]
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func nonEmpty(format, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return fmt.Sprintf(format, value)
}

func descriptionClause(description string) string {
	text := Plaintext(description)
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) > maxDescriptionRunes {
		text = strings.TrimSpace(string([]rune(text)[:maxDescriptionRunes])) + "..."
	}
	return fmt.Sprintf("Course context: %s.", strings.TrimSuffix(text, "."))
}

func colorClause(p ColorPalette, variation string) string {
	if p.Primary == "" && p.Secondary == "" && p.Accent == "" {
		return ""
	}
	clause := fmt.Sprintf("Color scheme: primary %s, secondary %s, accent %s", p.Primary, p.Secondary, p.Accent)
	if variation != "" {
		clause += ", " + variation
	}
	return clause + "."
}

func visualClause(elements, specific string) string {
	var items []string
	for _, v := range []string{elements, specific} {
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, v)
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "Visual elements: " + strings.Join(items, "; featuring ") + "."
}

func layoutClause(composition, pattern string) string {
	switch {
	case composition != "" && pattern != "":
		return fmt.Sprintf("Layout: %s, following a %s.", composition, pattern)
	case composition != "":
		return fmt.Sprintf("Layout: %s.", composition)
	case pattern != "":
		return fmt.Sprintf("Layout: %s.", pattern)
	default:
		return ""
	}
}

func formatClause(engine domain.Engine) string {
	switch engine {
	case domain.EngineRecraft:
		return "Technical format: 1820x1024 digital illustration, clean vector-friendly shapes, crisp edges, balanced negative space for a course card."
	case domain.EngineFlux:
		return "Technical format: 16:9 widescreen banner, high detail, sharp focus, high quality WebP output."
	default:
		return ""
	}
}

func themeClause(category Category, variation string) string {
	theme := Theme(category)
	switch {
	case theme != "" && variation != "":
		return fmt.Sprintf("Theme: %s, conveying %s.", theme, variation)
	case theme != "":
		return fmt.Sprintf("Theme: %s.", theme)
	default:
		return nonEmpty("Theme: %s.", variation)
	}
}
