package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/internal/session"
	"github.com/okian/skinlens/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestStore(t *testing.T) {
	Convey("Given an empty session store", t, func() {
		ctx := context.Background()
		s := session.NewStore()

		Convey("Then nothing is signed in", func() {
			So(s.SignedIn(), ShouldBeFalse)
			So(s.User(), ShouldBeNil)
			So(s.Profile(), ShouldBeNil)
		})

		Convey("When signing in", func() {
			s.SignIn(ctx, &model.User{ID: "u1", Email: "a@b.test"}, "access", "refresh")
			s.SetProfile(ctx, &model.Profile{FullName: "Ada", Concerns: []string{"acne"}})

			Convey("Then getters return the stored values", func() {
				So(s.SignedIn(), ShouldBeTrue)
				So(s.AccessToken(), ShouldEqual, "access")
				So(s.RefreshToken(), ShouldEqual, "refresh")
				So(s.User().ID, ShouldEqual, "u1")
				So(s.Profile().FullName, ShouldEqual, "Ada")
			})

			Convey("Then snapshots are copies", func() {
				snap := s.Snapshot()
				snap.User.ID = "changed"
				snap.Profile.Concerns[0] = "changed"
				So(s.User().ID, ShouldEqual, "u1")
				So(s.Profile().Concerns[0], ShouldEqual, "acne")
			})

			Convey("And logging out", func() {
				s.Logout(ctx)

				Convey("Then every field is cleared", func() {
					So(s.Snapshot(), ShouldResemble, model.Session{})
				})
			})
		})

		Convey("When a listener is subscribed", func() {
			var mu sync.Mutex
			var seen []model.Session
			unsubscribe := s.Subscribe(func(st model.Session) {
				mu.Lock()
				seen = append(seen, st)
				mu.Unlock()
			})

			s.SetTokens(ctx, "a1", "r1")
			s.Logout(ctx)
			unsubscribe()
			unsubscribe()
			s.SetTokens(ctx, "a2", "r2")

			Convey("Then it sees each change until it unsubscribes", func() {
				So(seen, ShouldHaveLength, 2)
				So(seen[0].AccessToken, ShouldEqual, "a1")
				So(seen[1], ShouldResemble, model.Session{})
			})
		})

		Convey("When a listener reads the store", func() {
			var token string
			s.Subscribe(func(model.Session) { token = s.AccessToken() })
			s.SetTokens(ctx, "a1", "r1")

			Convey("Then it does not deadlock", func() {
				So(token, ShouldEqual, "a1")
			})
		})
	})
}

func TestFilePersister(t *testing.T) {
	Convey("Given a sealed session file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "session.bin")
		p, err := session.NewFilePersister(path, "correct horse")
		So(err, ShouldBeNil)

		Convey("When the file does not exist", func() {
			got, err := p.Load(ctx)

			Convey("Then an empty session is returned", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Session{})
			})
		})

		Convey("When a store saves through it", func() {
			s := session.NewStore(session.WithPersister(p))
			s.SignIn(ctx, &model.User{ID: "u1"}, "access", "refresh")

			Convey("Then the file does not contain the token in clear", func() {
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(raw), ShouldNotContainSubstring, "access")
			})

			Convey("Then a new store restores it", func() {
				restored := session.NewStore(session.WithPersister(p))
				So(restored.Restore(ctx), ShouldBeNil)
				So(restored.AccessToken(), ShouldEqual, "access")
				So(restored.User().ID, ShouldEqual, "u1")
			})

			Convey("Then another secret cannot open it", func() {
				other, err := session.NewFilePersister(path, "wrong")
				So(err, ShouldBeNil)
				_, err = other.Load(ctx)
				So(errors.Is(err, session.ErrCorruptSession), ShouldBeTrue)
			})

			Convey("Then logout removes the file", func() {
				s.Logout(ctx)
				_, err := os.Stat(path)
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When the file is truncated", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o700), ShouldBeNil)
			So(os.WriteFile(path, []byte("short"), 0o600), ShouldBeNil)
			_, err := p.Load(ctx)

			Convey("Then it is reported as corrupt", func() {
				So(errors.Is(err, session.ErrCorruptSession), ShouldBeTrue)
			})
		})
	})

	Convey("Given missing persister settings", t, func() {
		_, err := session.NewFilePersister("", "s")
		So(errors.Is(err, session.ErrPersist), ShouldBeTrue)
		_, err = session.NewFilePersister("/tmp/x", "")
		So(errors.Is(err, session.ErrPersist), ShouldBeTrue)
	})
}
