package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithOutput(io.Discard))
}

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func record(id, user string, minutes int) model.PhotoRecord {
	return model.PhotoRecord{
		ID:        id,
		UserID:    user,
		Timestamp: base.Add(time.Duration(minutes) * time.Minute),
		Metrics: model.NormalizedMetrics{
			Values:       map[string]model.Value{"acneScore": model.Number(float64(minutes))},
			ImageQuality: model.ImageQuality{Overall: 80},
		},
		Results: model.Results{AreaResults: []model.RawMetricEntry{
			{TechName: "acne_score", AreaName: "face", Value: model.Number(float64(minutes))},
		}},
	}
}

func ids(recs []model.PhotoRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func engines(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		EngineMemory: func() Store { return NewMemoryStore() },
		EngineSQLite: func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	for _, name := range []string{EngineMemory, EngineSQLite} {
		newStore := engines(t)[name]

		Convey(fmt.Sprintf("Given an empty %s store", name), t, func() {
			ctx := context.Background()
			s := newStore()
			defer func() { _ = s.Close() }()

			So(s.Count(ctx), ShouldEqual, 0)
			_, err := s.Latest(ctx, "")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			Convey("When records are saved out of order", func() {
				So(s.Save(ctx, record("b", "u1", 10)), ShouldBeNil)
				So(s.Save(ctx, record("a", "u1", 5)), ShouldBeNil)
				So(s.Save(ctx, record("c", "u2", 20)), ShouldBeNil)

				Convey("Then listing is newest first", func() {
					all, err := s.List(ctx, "", 0)
					So(err, ShouldBeNil)
					So(ids(all), ShouldResemble, []string{"c", "b", "a"})

					mine, err := s.List(ctx, "u1", 0)
					So(err, ShouldBeNil)
					So(ids(mine), ShouldResemble, []string{"b", "a"})

					limited, err := s.List(ctx, "", 2)
					So(err, ShouldBeNil)
					So(ids(limited), ShouldResemble, []string{"c", "b"})

					latest, err := s.Latest(ctx, "u1")
					So(err, ShouldBeNil)
					So(latest.ID, ShouldEqual, "b")
				})

				Convey("Then a record reads back intact", func() {
					got, err := s.Get(ctx, "b")
					So(err, ShouldBeNil)
					So(got.UserID, ShouldEqual, "u1")
					So(got.Timestamp.Equal(base.Add(10*time.Minute)), ShouldBeTrue)
					v, ok := got.Metrics.Get("acneScore")
					So(ok, ShouldBeTrue)
					So(v.String(), ShouldEqual, "10")
					So(got.Metrics.ImageQuality.Overall, ShouldEqual, 80.0)
					So(got.Results.AreaResults, ShouldHaveLength, 1)
					So(got.Results.AreaResults[0].TechName, ShouldEqual, "acne_score")
				})

				Convey("Then saving the same id replaces it", func() {
					So(s.Save(ctx, record("a", "u1", 30)), ShouldBeNil)
					So(s.Count(ctx), ShouldEqual, 3)
					all, _ := s.List(ctx, "", 0)
					So(ids(all), ShouldResemble, []string{"a", "c", "b"})
				})

				Convey("Then deleting removes only that record", func() {
					So(s.Delete(ctx, "b"), ShouldBeNil)
					So(s.Count(ctx), ShouldEqual, 2)
					_, err := s.Get(ctx, "b")
					So(errors.Is(err, ErrNotFound), ShouldBeTrue)
					So(errors.Is(s.Delete(ctx, "b"), ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When inputs are invalid", func() {
				So(errors.Is(s.Save(ctx, model.PhotoRecord{}), ErrMissingID), ShouldBeTrue)
				_, err := s.List(ctx, "", -1)
				So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
				_, err = s.Get(ctx, "missing")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	Convey("Given a memory store capped at two records", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(WithMaxRecords(2))

		So(s.Save(ctx, record("old", "", 1)), ShouldBeNil)
		So(s.Save(ctx, record("mid", "", 2)), ShouldBeNil)
		So(s.Save(ctx, record("new", "", 3)), ShouldBeNil)

		Convey("Then the oldest record is evicted", func() {
			So(s.Count(ctx), ShouldEqual, 2)
			_, err := s.Get(ctx, "old")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Save(ctx, record(fmt.Sprintf("p%02d", i), "u", i))
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx, "", 0)
		So(err, ShouldBeNil)
		So(all, ShouldHaveLength, 50)
		So(all[0].ID, ShouldEqual, "p49")
		So(all[49].ID, ShouldEqual, "p00")
	})
}

func TestNewByEngine(t *testing.T) {
	Convey("Given engine names", t, func() {
		s, err := NewByEngine("", "")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &MemoryStore{})

		s, err = NewByEngine("SQLite", filepath.Join(t.TempDir(), "nested", "h.db"))
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &SQLiteStore{})
		So(s.Close(), ShouldBeNil)

		_, err = NewByEngine("bolt", "")
		So(errors.Is(err, ErrUnknownEngine), ShouldBeTrue)
	})
}
