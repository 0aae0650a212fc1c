// Package mapping converts the vendor's metric list into NormalizedMetrics.
//
// Map is pure: the same entries in the same order always yield the same
// record. Unknown tech names are dropped without error.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/skinlens/internal/domain/model"
)

const (
	faceArea = "face"
	// maxWrapDepth bounds {"results": {"area_results": [...]}} nesting.
	maxWrapDepth = 3
)

// Map converts one photo's entries into NormalizedMetrics.
//
// When several entries map to the same key, an entry whose area_name is
// "face" wins; otherwise the first entry in input order is kept. Metric
// entries with a null value are ignored. If nothing matches, the result holds only the
// zero image quality block.
func Map(entries []model.RawMetricEntry) (model.NormalizedMetrics, error) {
	if len(entries) == 0 {
		return model.NormalizedMetrics{}, &MappingError{}
	}

	values := make(map[string]model.Value)
	faceWon := make(map[string]bool)

	var quality *model.RawMetricEntry
	qualityFace := false

	for i := range entries {
		e := &entries[i]
		name := normalizeName(e.TechName)
		isFace := strings.EqualFold(strings.TrimSpace(e.AreaName), faceArea)

		// Quality sub-metrics count even when the overall value is null.
		if name == imageQualityTechName {
			if quality == nil || (isFace && !qualityFace) {
				quality = e
				qualityFace = isFace
			}
			continue
		}
		if !e.Value.IsSet() {
			continue
		}

		info, ok := byTechName[name]
		if !ok {
			continue
		}
		if _, seen := values[info.Key]; seen && (faceWon[info.Key] || !isFace) {
			continue
		}
		values[info.Key] = e.Value
		faceWon[info.Key] = isFace
	}

	out := model.NormalizedMetrics{Values: values}
	if quality != nil {
		out.ImageQuality = imageQuality(quality)
	}
	return out, nil
}

// imageQuality reads overall from the entry and the first focus and lighting
// sub-metrics in order.
func imageQuality(e *model.RawMetricEntry) model.ImageQuality {
	var q model.ImageQuality
	q.Overall, _ = e.Value.Float()

	var haveFocus, haveLighting bool
	for _, sub := range e.SubMetrics {
		f, ok := sub.Value.Float()
		if !ok {
			continue
		}
		name := normalizeName(sub.TechName)
		switch {
		case !haveFocus && contains(focusSubMetrics, name):
			q.Focus, haveFocus = f, true
		case !haveLighting && contains(lightingSubMetrics, name):
			q.Lighting, haveLighting = f, true
		}
	}
	return q
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Decode parses a vendor results payload. It accepts a bare array of entries
// or an object carrying the array under "results" or "area_results"
// (including {"results": {"area_results": [...]}}).
func Decode(payload []byte) ([]model.RawMetricEntry, error) {
	return decode(payload, 0)
}

func decode(payload []byte, depth int) ([]model.RawMetricEntry, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, &MappingError{}
	}

	switch payload[0] {
	case '[':
		var entries []model.RawMetricEntry
		if err := json.Unmarshal(payload, &entries); err != nil {
			return nil, &MappingError{Err: err}
		}
		if len(entries) == 0 {
			return nil, &MappingError{}
		}
		return entries, nil
	case '{':
		if depth >= maxWrapDepth {
			return nil, &MappingError{Err: errors.New("results nested too deeply")}
		}
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(payload, &wrapper); err != nil {
			return nil, &MappingError{Err: err}
		}
		for _, key := range []string{"area_results", "results"} {
			if inner, ok := wrapper[key]; ok {
				return decode(inner, depth+1)
			}
		}
		return nil, &MappingError{Err: errors.New("no results field")}
	default:
		return nil, &MappingError{Err: fmt.Errorf("unexpected payload starting with %q", payload[0])}
	}
}

// MapPayload decodes payload and maps the entries.
func MapPayload(payload []byte) ([]model.RawMetricEntry, model.NormalizedMetrics, error) {
	entries, err := Decode(payload)
	if err != nil {
		return nil, model.NormalizedMetrics{}, err
	}
	m, err := Map(entries)
	if err != nil {
		return nil, model.NormalizedMetrics{}, err
	}
	return entries, m, nil
}
