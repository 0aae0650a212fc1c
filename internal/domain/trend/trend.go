// Package trend computes per-metric changes across analyzed photos.
package trend

import (
	"sort"
	"time"

	"github.com/okian/skinlens/internal/domain/mapping"
	"github.com/okian/skinlens/internal/domain/model"
)

// Compare returns the change of every numeric metric present in both before
// and after. Deltas follow catalog order; keys outside the catalog follow in
// lexical order. Image quality is included as "imageQuality".
func Compare(before, after model.NormalizedMetrics) []model.MetricDelta {
	out := make([]model.MetricDelta, 0, len(after.Values)+1)
	seen := make(map[string]bool, len(after.Values))

	add := func(key string) {
		seen[key] = true
		b, okB := numeric(before, key)
		a, okA := numeric(after, key)
		if !okB || !okA {
			return
		}
		out = append(out, model.MetricDelta{Key: key, Before: b, After: a, Delta: a - b})
	}

	for _, info := range mapping.Catalog() {
		add(info.Key)
	}
	for _, key := range after.Keys() {
		if !seen[key] {
			add(key)
		}
	}

	out = append(out, model.MetricDelta{
		Key:    "imageQuality",
		Before: before.ImageQuality.Overall,
		After:  after.ImageQuality.Overall,
		Delta:  after.ImageQuality.Overall - before.ImageQuality.Overall,
	})
	return out
}

func numeric(m model.NormalizedMetrics, key string) (float64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Point is one observation of a metric over time.
type Point struct {
	PhotoID string    `json:"photoId"`
	At      time.Time `json:"at"`
	Value   float64   `json:"value"`
}

// Series returns the numeric history of key across records, oldest first.
// Records without a numeric value for key are skipped.
func Series(records []model.PhotoRecord, key string) []Point {
	out := make([]Point, 0, len(records))
	for _, r := range records {
		if f, ok := numeric(r.Metrics, key); ok {
			out = append(out, Point{PhotoID: r.ID, At: r.Timestamp, Value: f})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
