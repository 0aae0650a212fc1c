package trend_test

import (
	"testing"
	"time"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/internal/domain/trend"
	"github.com/smartystreets/goconvey/convey"
)

func metrics(values map[string]model.Value, overall float64) model.NormalizedMetrics {
	return model.NormalizedMetrics{Values: values, ImageQuality: model.ImageQuality{Overall: overall}}
}

func TestCompare(t *testing.T) {
	convey.Convey("Given two analyzed photos", t, func() {
		before := metrics(map[string]model.Value{
			"hydrationScore": model.Number(60),
			"acneScore":      model.Number(40),
			"skinType":       model.Text("oily"),
			"eyeAge":         model.Number(30),
		}, 70)
		after := metrics(map[string]model.Value{
			"hydrationScore": model.Number(72.5),
			"acneScore":      model.Text("35"),
			"skinType":       model.Text("combination"),
		}, 80)

		deltas := trend.Compare(before, after)

		convey.Convey("Then numeric metrics in both are compared in catalog order", func() {
			convey.So(deltas, convey.ShouldResemble, []model.MetricDelta{
				{Key: "hydrationScore", Before: 60, After: 72.5, Delta: 12.5},
				{Key: "acneScore", Before: 40, After: 35, Delta: -5},
				{Key: "imageQuality", Before: 70, After: 80, Delta: 10},
			})
		})
	})

	convey.Convey("Given metrics outside the catalog", t, func() {
		before := metrics(map[string]model.Value{"zeta": model.Number(1), "alpha": model.Number(2)}, 0)
		after := metrics(map[string]model.Value{"zeta": model.Number(3), "alpha": model.Number(2)}, 0)

		deltas := trend.Compare(before, after)

		convey.Convey("Then they follow in lexical order", func() {
			convey.So(deltas[0].Key, convey.ShouldEqual, "alpha")
			convey.So(deltas[1].Key, convey.ShouldEqual, "zeta")
			convey.So(deltas[1].Delta, convey.ShouldEqual, 2)
		})
	})
}

func TestSeries(t *testing.T) {
	convey.Convey("Given a history out of order", t, func() {
		t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		records := []model.PhotoRecord{
			{ID: "b", Timestamp: t0.Add(48 * time.Hour), Metrics: metrics(map[string]model.Value{"acneScore": model.Number(30)}, 0)},
			{ID: "a", Timestamp: t0, Metrics: metrics(map[string]model.Value{"acneScore": model.Number(50)}, 0)},
			{ID: "c", Timestamp: t0.Add(24 * time.Hour), Metrics: metrics(map[string]model.Value{}, 0)},
		}

		points := trend.Series(records, "acneScore")

		convey.Convey("Then points are oldest first and skip missing values", func() {
			convey.So(points, convey.ShouldHaveLength, 2)
			convey.So(points[0].PhotoID, convey.ShouldEqual, "a")
			convey.So(points[1].PhotoID, convey.ShouldEqual, "b")
			convey.So(points[1].Value, convey.ShouldEqual, 30)
		})
	})
}
