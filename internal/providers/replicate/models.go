package replicate

import "covergen/internal/domain"

const (
	ModelFlux    = "black-forest-labs/flux-1.1-pro"
	ModelRecraft = "recraft-ai/recraft-v3"
)

// ModelInput maps an engine to its model identifier and input parameters.
// Unknown engines use the default engine.
func ModelInput(engine domain.Engine, prompt string) (string, map[string]any) {
	switch engine {
	case domain.EngineRecraft:
		return ModelRecraft, map[string]any{
			"prompt": prompt,
			"size":   "1820x1024",
			"style":  "digital_illustration",
		}
	default:
		return ModelFlux, map[string]any{
			"prompt":            prompt,
			"aspect_ratio":      "16:9",
			"output_format":     "webp",
			"output_quality":    90,
			"safety_tolerance":  2,
			"prompt_upsampling": false,
		}
	}
}
