package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/skinlens/internal/domain/model"
)

// maxRoundable is the magnitude above which a float64 has no fractional part
// to round and v*10 could overflow.
const maxRoundable = 1e15

// FormatScore renders v with one decimal, rounding half away from zero.
func FormatScore(v float64) string {
	r := v
	if math.Abs(v) < maxRoundable {
		r = math.Round(v*10) / 10
	}
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// ParseScore parses a score rendered by FormatScore.
func ParseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, s)
	}
	return f, nil
}

// Display renders a metric value for the metric-detail view.
func Display(info MetricInfo, v model.Value) string {
	f, ok := v.Float()
	if !ok || info.Kind == KindText {
		return v.String()
	}
	if info.Kind == KindAge {
		return strconv.FormatFloat(math.Round(f), 'f', 0, 64)
	}
	return FormatScore(f)
}
