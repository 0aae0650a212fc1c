package mapping

import "strings"

// Kind tells the metric-detail view how to render a value.
type Kind string

// Metric kinds.
const (
	KindScore Kind = "score"
	KindAge   Kind = "age"
	KindText  Kind = "text"
)

// imageQualityTechName is special-cased into NormalizedMetrics.ImageQuality.
const imageQualityTechName = "image_quality_score"

// Sub-metric names read from the image quality entry.
var (
	focusSubMetrics    = []string{"focus_score", "raw_sharpness"}    //nolint:gochecknoglobals // fixed vendor vocabulary
	lightingSubMetrics = []string{"lightness_score", "intensity"} //nolint:gochecknoglobals // fixed vendor vocabulary
)

// MetricInfo describes one known metric.
type MetricInfo struct {
	Key      string `json:"key"`
	TechName string `json:"techName"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
}

// catalog is the fixed vendor-name to application-key dictionary.
var catalog = []MetricInfo{ //nolint:gochecknoglobals // fixed vendor vocabulary
	{Key: "skinHealthScore", TechName: "skin_health_score", Label: "Skin health", Kind: KindScore},
	{Key: "hydrationScore", TechName: "hydration_score", Label: "Hydration", Kind: KindScore},
	{Key: "acneScore", TechName: "acne_score", Label: "Acne", Kind: KindScore},
	{Key: "rednessScore", TechName: "redness_score", Label: "Redness", Kind: KindScore},
	{Key: "poresScore", TechName: "pores_score", Label: "Pores", Kind: KindScore},
	{Key: "pigmentationScore", TechName: "pigmentation_score", Label: "Pigmentation", Kind: KindScore},
	{Key: "linesScore", TechName: "lines_score", Label: "Lines", Kind: KindScore},
	{Key: "wrinklesScore", TechName: "wrinkles_score", Label: "Wrinkles", Kind: KindScore},
	{Key: "uniformnessScore", TechName: "uniformness_score", Label: "Uniformness", Kind: KindScore},
	{Key: "translucencyScore", TechName: "translucency_score", Label: "Translucency", Kind: KindScore},
	{Key: "eyeBagsScore", TechName: "eye_bags_score", Label: "Eye bags", Kind: KindScore},
	{Key: "darkCirclesScore", TechName: "dark_circles_score", Label: "Dark circles", Kind: KindScore},
	{Key: "saggingScore", TechName: "sagging_score", Label: "Sagging", Kind: KindScore},
	{Key: "oilinessScore", TechName: "oiliness_score", Label: "Oiliness", Kind: KindScore},
	{Key: "perceivedAge", TechName: "perceived_age", Label: "Perceived age", Kind: KindAge},
	{Key: "eyeAge", TechName: "eye_age", Label: "Eye age", Kind: KindAge},
	{Key: "skinTone", TechName: "skin_tone", Label: "Skin tone", Kind: KindText},
	{Key: "skinType", TechName: "skin_type", Label: "Skin type", Kind: KindText},
}

var (
	byTechName = index(func(m MetricInfo) string { return m.TechName }) //nolint:gochecknoglobals // derived lookup
	byKey      = index(func(m MetricInfo) string { return m.Key })      //nolint:gochecknoglobals // derived lookup
)

func index(key func(MetricInfo) string) map[string]MetricInfo {
	out := make(map[string]MetricInfo, len(catalog))
	for _, m := range catalog {
		out[key(m)] = m
	}
	return out
}

// Catalog returns the known metrics in display order.
func Catalog() []MetricInfo {
	out := make([]MetricInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the metric with the given application key.
func Lookup(key string) (MetricInfo, bool) {
	m, ok := byKey[key]
	return m, ok
}

// normalizeName folds a vendor tech_name for dictionary lookup.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
