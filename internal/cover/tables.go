package cover

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// StyleVariant describes the illustration approach for a cover.
type StyleVariant struct {
	Style       string `yaml:"style"`
	Elements    string `yaml:"elements"`
	Composition string `yaml:"composition"`
}

// ColorPalette is the three-color scheme for a cover.
type ColorPalette struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Accent    string `yaml:"accent"`
}

type uniqueOptions struct {
	ColorVariations  []string `yaml:"color_variations"`
	SpecificElements []string `yaml:"specific_elements"`
	LayoutPatterns   []string `yaml:"layout_patterns"`
	Signatures       []string `yaml:"signatures"`
	ThemeVariations  []string `yaml:"theme_variations"`
}

type categoryTable struct {
	Theme    string         `yaml:"theme"`
	Styles   []StyleVariant `yaml:"styles"`
	Palettes []ColorPalette `yaml:"palettes"`
	Unique   uniqueOptions  `yaml:"unique"`
}

type visualTables struct {
	Categories map[Category]categoryTable `yaml:"categories"`
}

var (
	tablesOnce sync.Once
	tables     *visualTables
	tablesErr  error
)

func loadTables() (*visualTables, error) {
	tablesOnce.Do(func() {
		var t visualTables
		if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
			tablesErr = fmt.Errorf("cover: parse tables: %w", err)
			return
		}
		if err := t.validate(); err != nil {
			tablesErr = err
			return
		}
		tables = &t
	})
	return tables, tablesErr
}

func (t *visualTables) validate() error {
	general, ok := t.Categories[CategoryGeneral]
	if !ok {
		return fmt.Errorf("cover: tables missing %q category", CategoryGeneral)
	}
	if len(general.Styles) == 0 || len(general.Palettes) == 0 {
		return fmt.Errorf("cover: %q category needs styles and palettes", CategoryGeneral)
	}
	u := general.Unique
	if len(u.ColorVariations) == 0 || len(u.SpecificElements) == 0 || len(u.LayoutPatterns) == 0 ||
		len(u.Signatures) == 0 || len(u.ThemeVariations) == 0 {
		return fmt.Errorf("cover: %q category needs every unique option list", CategoryGeneral)
	}
	for name := range t.Categories {
		if !KnownCategory(name) {
			return fmt.Errorf("cover: tables define unknown category %q", name)
		}
	}
	return nil
}

// table returns the entry for c with the general entry filling any gaps.
func (t *visualTables) table(c Category) categoryTable {
	general := t.Categories[CategoryGeneral]
	entry, ok := t.Categories[c]
	if !ok {
		return general
	}
	if len(entry.Styles) == 0 {
		entry.Styles = general.Styles
	}
	if len(entry.Palettes) == 0 {
		entry.Palettes = general.Palettes
	}
	if entry.Theme == "" {
		entry.Theme = general.Theme
	}
	entry.Unique = entry.Unique.withFallback(general.Unique)
	return entry
}

func (u uniqueOptions) withFallback(f uniqueOptions) uniqueOptions {
	pick := func(a, b []string) []string {
		if len(a) == 0 {
			return b
		}
		return a
	}
	return uniqueOptions{
		ColorVariations:  pick(u.ColorVariations, f.ColorVariations),
		SpecificElements: pick(u.SpecificElements, f.SpecificElements),
		LayoutPatterns:   pick(u.LayoutPatterns, f.LayoutPatterns),
		Signatures:       pick(u.Signatures, f.Signatures),
		ThemeVariations:  pick(u.ThemeVariations, f.ThemeVariations),
	}
}

// mustTables panics when the embedded document is invalid.
func mustTables() *visualTables {
	t, err := loadTables()
	if err != nil {
		panic(err)
	}
	return t
}
