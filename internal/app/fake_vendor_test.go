package service_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/adapters/vendor"
	service "github.com/okian/skinlens/internal/app"
	"github.com/okian/skinlens/internal/session"
)

// fakeVendor is a minimal in-process vendor API.
type fakeVendor struct {
	mu        sync.Mutex
	results   string
	pending   int
	uploads   atomic.Int32
	deletes   []string
	compareOK bool
	nextID    atomic.Int32
	polls     map[string]int
	profile   map[string]any
}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{
		results:   `{"results":[{"tech_name":"acne_score","area_name":"face","value":42},{"tech_name":"hydration_score","area_name":"face","value":"71.25"}]}`,
		compareOK: true,
		polls:     make(map[string]int),
		profile:   map[string]any{"full_name": "Ada"},
	}
}

func reply(w http.ResponseWriter, status int, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status, "message": message, "data": map[string]any{"result": result},
	})
}

func (f *fakeVendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/user/login" && r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		reply(w, 401, "Given token not valid", nil)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/user/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			reply(w, 400, "Invalid credentials", nil)
			return
		}
		reply(w, 200, "ok", map[string]any{
			"user": map[string]string{"id": "u1", "email": body["email"]}, "access": "tok", "refresh": "ref",
		})
	case r.URL.Path == "/profile/":
		if r.Method == http.MethodPost {
			var p map[string]any
			_ = json.NewDecoder(r.Body).Decode(&p)
			f.profile = p
		}
		reply(w, 200, "ok", f.profile)
	case r.URL.Path == "/haut_process/" && r.Method == http.MethodPost:
		file, _, err := r.FormFile("image")
		if err != nil {
			reply(w, 400, "image is required", nil)
			return
		}
		_, _ = io.Copy(io.Discard, file)
		f.uploads.Add(1)
		id := fmt.Sprintf("an-%d", f.nextID.Add(1))
		reply(w, 201, "created", map[string]string{"id": id, "image_url": "https://cdn.test/" + id + ".jpg"})
	case r.URL.Path == "/haut_process/" && r.Method == http.MethodGet:
		id := r.URL.Query().Get("id")
		f.polls[id]++
		if f.polls[id] <= f.pending {
			reply(w, 200, "ok", map[string]string{"status": "processing"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":200,"message":"ok","data":{"result":`+f.results+`}}`)
	case r.URL.Path == "/haut_process/" && r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, r.URL.Query().Get("id"))
		reply(w, 200, "deleted", nil)
	case r.URL.Path == "/haut_mask/" && r.Method == http.MethodPost:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, 200, "ok", map[string]string{"url": "https://cdn.test/mask/" + body["analysis_id"] + "/" + body["tech_name"]})
	case r.URL.Path == "/haut_mask/":
		reply(w, 200, "ok", []map[string]string{{"analysis_id": r.URL.Query().Get("analysis_id"), "tech_name": "acne_score", "url": "u"}})
	case r.URL.Path == "/comparison/":
		if !f.compareOK {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		reply(w, 200, "ok", map[string]any{"summary": "improved"})
	case r.URL.Path == "/chat/":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, 200, "ok", map[string]string{"reply": "echo: " + strings.ToUpper(body["message"])})
	default:
		reply(w, 404, "Not found", nil)
	}
}

// newService wires a Service to a fresh fake vendor with fast polling.
func newService(t *testing.T, opts ...service.Option) (*service.Service, *fakeVendor) {
	t.Helper()
	fv := newFakeVendor()
	srv := httptest.NewServer(fv)
	t.Cleanup(srv.Close)

	client, err := vendor.New(srv.URL, session.NewStore(), vendor.WithPollPolicy(vendor.PollPolicy{
		Interval: 2 * time.Millisecond, MaxAttempts: 5, Timeout: 5 * time.Second,
	}))
	if err != nil {
		t.Fatalf("vendor.New() error = %v", err)
	}
	return service.New(client, opts...), fv
}
