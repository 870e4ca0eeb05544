// Package cover derives deterministic course-cover prompts from a course's
// identity: a fingerprint, a subject category, salient keywords and the
// visual choices those seed.
package cover

import "covergen/internal/domain"

// Plan is the full set of derived choices for one course and engine.
type Plan struct {
	Fingerprint string
	Category    Category
	Keywords    []string
	Style       StyleVariant
	Palette     ColorPalette
	Unique      UniqueVisualElements
	Prompt      string
}

// NewPlan runs every derivation step for course. It is a pure function of
// the course fields and the engine.
func NewPlan(course domain.Course, engine domain.Engine) Plan {
	fp := Fingerprint(course.ID, course.Title, course.Description)
	category := Classify(course.Title, course.Description)
	p := Plan{
		Fingerprint: fp,
		Category:    category,
		Keywords:    ExtractKeywords(course.Title, course.Description),
		Style:       SelectStyle(category, fp),
		Palette:     SelectPalette(category, fp),
		Unique:      SelectUniqueElements(category, fp),
	}
	p.Prompt = Compose(PromptInput{
		CourseID:    course.ID,
		Title:       course.Title,
		Description: course.Description,
		Fingerprint: fp,
		Category:    category,
		Palette:     p.Palette,
		Style:       p.Style,
		Unique:      p.Unique,
		Keywords:    p.Keywords,
		Engine:      engine,
	})
	return p
}
