package model

import (
	"encoding/json"
	"sort"
)

const imageQualityKey = "imageQuality"

// RawMetricEntry is one named measurement as returned by the vendor.
// Several entries may share a TechName across different AreaName values.
type RawMetricEntry struct {
	TechName   string           `json:"tech_name"`
	AreaName   string           `json:"area_name"`
	Value      Value            `json:"value"`
	SubMetrics []RawMetricEntry `json:"sub_metrics,omitempty"`
}

// ImageQuality summarizes how usable the submitted photo was.
type ImageQuality struct {
	Overall  float64 `json:"overall"`
	Focus    float64 `json:"focus"`
	Lighting float64 `json:"lighting"`
}

// NormalizedMetrics is the flat, camelCase view of one photo's scores.
// It encodes as a single JSON object: each metric key at the top level plus
// an "imageQuality" object.
type NormalizedMetrics struct {
	Values       map[string]Value
	ImageQuality ImageQuality
}

// Get returns the value stored under key.
func (m NormalizedMetrics) Get(key string) (Value, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Keys returns the metric keys in lexical order.
func (m NormalizedMetrics) Keys() []string {
	keys := make([]string, 0, len(m.Values))
	for k := range m.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of mapped metrics, excluding image quality.
func (m NormalizedMetrics) Len() int { return len(m.Values) }

// MarshalJSON implements json.Marshaler.
func (m NormalizedMetrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Values)+1)
	for k, v := range m.Values {
		out[k] = v
	}
	out[imageQualityKey] = m.ImageQuality
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *NormalizedMetrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NormalizedMetrics{Values: make(map[string]Value, len(raw))}
	for k, msg := range raw {
		if k == imageQualityKey {
			if err := json.Unmarshal(msg, &out.ImageQuality); err != nil {
				return err
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		out.Values[k] = v
	}
	*m = out
	return nil
}
