package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNoopStore(t *testing.T) {
	Convey("Given an unconfigured document store", t, func() {
		var s Store = NewNoopStore()
		ctx := context.Background()

		So(errors.Is(s.UpsertPhoto(ctx, model.PhotoRecord{ID: "p1"}), ErrNotConfigured), ShouldBeTrue)
		So(errors.Is(s.DeletePhoto(ctx, "p1"), ErrNotConfigured), ShouldBeTrue)
		So(errors.Is(s.UpsertThread(ctx, model.ChatThread{ID: "t1"}), ErrNotConfigured), ShouldBeTrue)
		_, err := s.Thread(ctx, "t1")
		So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		So(func() { s.Close() }, ShouldNotPanic)
	})
}

func TestNewPostgresRejectsBadDSN(t *testing.T) {
	Convey("Given a malformed connection string", t, func() {
		_, err := NewPostgres(context.Background(), "postgres://user@localhost:notaport/db")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldStartWith, "docstore: connect")
	})
}

func TestArgs(t *testing.T) {
	Convey("Given a photo record", t, func() {
		at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("X", 3600))
		rec := model.PhotoRecord{
			ID: "p1", UserID: "u1", AnalysisID: "an-1", StorageURL: "s3://b/k",
			Timestamp: at, ContentHash: "abc",
			Metrics: model.NormalizedMetrics{Values: map[string]model.Value{"acneScore": model.Number(42)}},
		}

		args, err := photoArgs(rec)

		Convey("Then columns follow the insert order", func() {
			So(err, ShouldBeNil)
			So(args, ShouldHaveLength, 8)
			So(args[0], ShouldEqual, "p1")
			So(args[4], ShouldEqual, at.UTC())
			So(args[7], ShouldEqual, "abc")

			var metrics map[string]any
			So(json.Unmarshal(args[5].([]byte), &metrics), ShouldBeNil)
			So(metrics["acneScore"], ShouldEqual, 42.0)
		})
	})

	Convey("Given a thread without messages", t, func() {
		args, err := threadArgs(model.ChatThread{ID: "t1"})
		So(err, ShouldBeNil)
		So(string(args[2].([]byte)), ShouldEqual, "[]")
	})
}

// TestPostgresRoundTrip runs against a live database when
// SKINLENS_TEST_POSTGRES_DSN is set.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("SKINLENS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SKINLENS_TEST_POSTGRES_DSN not set")
	}

	Convey("Given a live database", t, func() {
		ctx := context.Background()
		p, err := NewPostgres(ctx, dsn)
		So(err, ShouldBeNil)
		defer p.Close()

		So(p.UpsertPhoto(ctx, model.PhotoRecord{ID: "it-photo", Timestamp: time.Now()}), ShouldBeNil)
		So(p.DeletePhoto(ctx, "it-photo"), ShouldBeNil)

		thread := model.ChatThread{ID: "it-thread", UserID: "u1", Messages: []model.ChatMessage{
			{Role: "user", Content: "hi", At: time.Now().UTC().Truncate(time.Second)},
		}}
		So(p.UpsertThread(ctx, thread), ShouldBeNil)
		got, err := p.Thread(ctx, "it-thread")
		So(err, ShouldBeNil)
		So(got.Messages, ShouldHaveLength, 1)
		So(got.Messages[0].Content, ShouldEqual, "hi")

		_, err = p.Thread(ctx, "missing-thread")
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)
	})
}
