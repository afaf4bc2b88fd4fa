package service

// Compiled-in pricing. Credit prices are coarse and provider-independent;
// real costs are per-provider estimates in USD and vary several-fold for the
// same action. Admin rows in cost_rates and pricing.yml overrides layer on
// top of these at resolution time.

const (
	variantHD = "hd"
	variant2K = "2k"
	variant4K = "4k"
)

var defaultCreditCosts = map[string]int64{
	"image":     27,
	"video":     20,
	"voiceover": 6,
	"scene":     2,
	"character": 2,
	"prompt":    1,
	"music":     10,
	"other":     1,
}

// Variant-specific credit prices. Only high-resolution images deviate from
// the base price today.
var defaultCreditCostVariants = map[string]map[string]int64{
	"image": {
		variant4K: 48,
	},
}

type rateKey struct {
	action   string
	provider string
	model    string
	variant  string
}

var defaultRealCosts = map[rateKey]float64{
	// image
	{action: "image", provider: "modal", model: "qwen-image", variant: variantHD}: 0.09,
	{action: "image", provider: "modal", model: "qwen-image", variant: variant2K}: 0.12,
	{action: "image", provider: "modal", model: "qwen-image", variant: variant4K}: 0.24,
	{action: "image", provider: "modal", model: "qwen-image-edit-2511"}:           0.14,
	{action: "image", provider: "modal"}:                                          0.12,
	{action: "image", provider: "replicate", model: "flux-dev"}:                   0.025,
	{action: "image", provider: "replicate", model: "flux-1.1-pro"}:               0.04,
	{action: "image", provider: "replicate"}:                                      0.03,
	{action: "image", provider: "fal"}:                                            0.05,
	{action: "image"}:                                                             0.08,

	// video
	{action: "video", provider: "modal", model: "vectcut-processor"}: 0.35,
	{action: "video", provider: "modal"}:                             0.35,
	{action: "video", provider: "replicate", model: "wan-2.2"}:       0.24,
	{action: "video", provider: "replicate"}:                         0.28,
	{action: "video", provider: "runway"}:                            0.95,
	{action: "video"}:                                                0.40,

	// voiceover
	{action: "voiceover", provider: "elevenlabs", model: "multilingual-v2"}: 0.08,
	{action: "voiceover", provider: "elevenlabs"}:                           0.08,
	{action: "voiceover", provider: "openai", model: "tts-1"}:               0.015,
	{action: "voiceover", provider: "openai"}:                               0.015,
	{action: "voiceover"}:                                                   0.05,

	// music
	{action: "music", provider: "suno"}:                         0.06,
	{action: "music", provider: "replicate", model: "musicgen"}: 0.02,
	{action: "music", provider: "replicate"}:                    0.02,
	{action: "music"}:                                           0.04,

	// text-ish helpers
	{action: "scene", provider: "openai"}:     0.01,
	{action: "scene"}:                         0.01,
	{action: "character", provider: "openai"}: 0.01,
	{action: "character"}:                     0.01,
	{action: "prompt"}:                        0.005,
}

func defaultRealCost(action, provider, model, variant string) float64 {
	tiers := []rateKey{
		{action: action, provider: provider, model: model, variant: variant},
		{action: action, provider: provider, model: model},
		{action: action, provider: provider},
		{action: action},
	}
	for _, key := range tiers {
		if cost, ok := defaultRealCosts[key]; ok {
			return cost
		}
	}
	return 0
}
