package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/index"
	"github.com/starford/mannaz/internal/rotation"
	"github.com/starford/mannaz/internal/storage"
	"github.com/starford/mannaz/internal/testutil"
	"github.com/starford/mannaz/internal/vision"
)

// fakeExtractor returns a canned reply and counts calls.
type fakeExtractor struct {
	reply string
	err   error
	calls int
}

func (f *fakeExtractor) Describe(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fixedScorer returns one score per angle in probe order.
type fixedScorer struct {
	scores []int
	calls  int
}

func (s *fixedScorer) Score(_ context.Context, _ []byte, _ string) (int, error) {
	i := s.calls
	s.calls++
	if i < len(s.scores) {
		return s.scores[i], nil
	}
	return 0, nil
}

type recordedEvent struct {
	kind string
	data map[string]string
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *eventLog) notify(kind string, data map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{kind, data})
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.kind
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultConfig() Config {
	return Config{
		APIKey:         "test-key",
		DetectRotation: true,
		ContactsDir:    "contacts",
		AttachmentsDir: "attachments",
		TrashOriginals: false,
	}
}

func newPipeline(t *testing.T, cfg Config, scores []int, reply string) (*Pipeline, storage.Provider, *index.DB, *fakeExtractor, *eventLog) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	ex := &fakeExtractor{reply: reply}
	events := &eventLog{}
	sel := rotation.NewSelector(&fixedScorer{scores: scores}, quietLogger())
	p := New(cfg, store, db, sel, ex, events.notify, quietLogger())
	return p, store, db, ex, events
}

func TestProcessImage_EndToEnd(t *testing.T) {
	reply := "```json\n{\"name\":\"Jane Doe\",\"company\":\"Acme\",\"phones\":[\"555-1234\"]}\n```"
	p, store, db, _, events := newPipeline(t, defaultConfig(), []int{0, 0, 0, 0}, reply)

	if err := store.Write("inbox/card.jpg", testutil.CardJPEG(t, 8, 6)); err != nil {
		t.Fatal(err)
	}

	notePath, err := p.ProcessImage(context.Background(), "inbox/card.jpg")
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if notePath != "contacts/Jane Doe.md" {
		t.Errorf("note path = %q", notePath)
	}

	body, err := store.Read(notePath)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	for _, want := range []string{"Company: Acme", "- 555-1234", "![[Jane Doe.jpg]]"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("note missing %q:\n%s", want, body)
		}
	}

	if !store.Exists("attachments/Jane Doe.jpg") {
		t.Error("attachment not written")
	}
	if store.Exists("inbox/card.jpg") {
		t.Error("original must not remain at its old path")
	}

	row, err := db.GetContact(notePath)
	if err != nil || row == nil {
		t.Fatalf("contact not indexed: %v", err)
	}
	if row.Record.Company != "Acme" {
		t.Errorf("indexed company = %q", row.Record.Company)
	}

	kinds := events.kinds()
	if len(kinds) != 2 || kinds[0] != "image.detected" || kinds[1] != "contact.created" {
		t.Errorf("events = %v", kinds)
	}
}

func TestProcessImage_MissingAPIKeyIsInert(t *testing.T) {
	cfg := defaultConfig()
	cfg.APIKey = ""
	p, store, _, ex, _ := newPipeline(t, cfg, []int{9}, "{}")

	_ = store.Write("inbox/card.jpg", testutil.CardJPEG(t, 4, 4))

	_, err := p.ProcessImage(context.Background(), "inbox/card.jpg")
	if !errors.Is(err, apperr.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if ex.calls != 0 {
		t.Error("no inference call may happen without an api key")
	}
	if !store.Exists("inbox/card.jpg") {
		t.Error("original must be untouched")
	}
	if store.Exists("contacts") || store.Exists("attachments") {
		t.Error("no files may be created")
	}
}

func TestProcessImage_RotationWinnerIsEmbedded(t *testing.T) {
	reply := "{\"name\":\"Tilt\"}"
	// 90 degrees wins.
	p, store, _, _, _ := newPipeline(t, defaultConfig(), []int{2, 9, 1, 1}, reply)

	original := testutil.CardPNG(t, 10, 4)
	_ = store.Write("inbox/tilted.png", original)

	if _, err := p.ProcessImage(context.Background(), "inbox/tilted.png"); err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}

	att, err := store.Read("attachments/Tilt.png")
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if string(att) == string(original) {
		t.Error("attachment should be the rotated buffer, not the original")
	}
}

func TestProcessImage_PathCollisionProbing(t *testing.T) {
	reply := "{\"name\":\"Foo\"}"
	p, store, _, _, _ := newPipeline(t, defaultConfig(), nil, reply)

	_ = store.Write("contacts/Foo.md", []byte("existing"))
	_ = store.Write("contacts/Foo (1).md", []byte("existing"))
	_ = store.Write("inbox/card.jpg", testutil.CardJPEG(t, 4, 4))

	notePath, err := p.ProcessImage(context.Background(), "inbox/card.jpg")
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if notePath != "contacts/Foo (2).md" {
		t.Errorf("note path = %q, want contacts/Foo (2).md", notePath)
	}
	// The pre-existing notes are untouched.
	if got, _ := store.Read("contacts/Foo.md"); string(got) != "existing" {
		t.Error("existing note overwritten")
	}
}

func TestProcessImage_NameFallsBackToFileName(t *testing.T) {
	p, store, _, _, _ := newPipeline(t, defaultConfig(), nil, "{\"company\":\"Acme\"}")

	_ = store.Write("inbox/trade-fair-scan.jpg", testutil.CardJPEG(t, 4, 4))

	notePath, err := p.ProcessImage(context.Background(), "inbox/trade-fair-scan.jpg")
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if notePath != "contacts/trade-fair-scan.md" {
		t.Errorf("note path = %q", notePath)
	}
}

func TestProcessImage_ParseFailureLeavesInboxIntact(t *testing.T) {
	cfg := defaultConfig()
	cfg.KeepFailedReplies = true
	p, store, _, _, events := newPipeline(t, cfg, nil, "the model rambles, no json here")

	_ = store.Write("inbox/card.jpg", testutil.CardJPEG(t, 4, 4))

	_, err := p.ProcessImage(context.Background(), "inbox/card.jpg")
	var pe *apperr.JSONParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want JSONParseError", err)
	}
	if !store.Exists("inbox/card.jpg") {
		t.Error("original must stay in the inbox on failure")
	}
	if store.Exists("contacts/card.md") {
		t.Error("no note may be fabricated from a failed parse")
	}
	// The raw reply is preserved for diagnosis.
	kept, err := store.Read(".failed/card.txt")
	if err != nil {
		t.Fatalf("failed reply not kept: %v", err)
	}
	if !strings.Contains(string(kept), "the model rambles") {
		t.Errorf("kept reply = %q", kept)
	}

	kinds := events.kinds()
	if kinds[len(kinds)-1] != "pipeline.failed" {
		t.Errorf("events = %v, want trailing pipeline.failed", kinds)
	}
}

func TestProcessImage_TrashOriginals(t *testing.T) {
	cfg := defaultConfig()
	cfg.TrashOriginals = true
	p, store, _, _, _ := newPipeline(t, cfg, nil, "{\"name\":\"Jane\"}")

	_ = store.Write("inbox/card.jpg", testutil.CardJPEG(t, 4, 4))

	if _, err := p.ProcessImage(context.Background(), "inbox/card.jpg"); err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if store.Exists("inbox/card.jpg") {
		t.Error("original still in inbox")
	}
	if !store.Exists(storage.TrashDir + "/card.jpg") {
		t.Error("original not in trash")
	}
}

// TestProcessImage_WithVisionClient drives the pipeline through the real
// vision client against a scripted API server: scoring requests (detected by
// their max_tokens ceiling) return a number, extraction returns fenced JSON.
func TestProcessImage_WithVisionClient(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		content := "```json\n{\"name\":\"Wire Jane\",\"company\":\"Acme\"}\n```"
		if _, scoring := req["max_tokens"]; scoring {
			content = "6"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	defer srv.Close()

	client := vision.NewClient(srv.URL, "test-key", "test-model", time.Second)
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	sel := rotation.NewSelector(client, quietLogger())
	p := New(defaultConfig(), store, db, sel, client, nil, quietLogger())

	_ = store.Write("inbox/card.jpg", testutil.CardJPEG(t, 8, 6))

	notePath, err := p.ProcessImage(context.Background(), "inbox/card.jpg")
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if notePath != "contacts/Wire Jane.md" {
		t.Errorf("note path = %q", notePath)
	}
	// Four scoring probes plus one extraction.
	if requests != 5 {
		t.Errorf("api requests = %d, want 5", requests)
	}
}

func TestProcessImage_RotationDisabledSkipsScoring(t *testing.T) {
	cfg := defaultConfig()
	cfg.DetectRotation = false
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	sc := &fixedScorer{scores: []int{9, 9, 9, 9}}
	sel := rotation.NewSelector(sc, quietLogger())
	ex := &fakeExtractor{reply: "{\"name\":\"Quick\"}"}
	p := New(cfg, store, db, sel, ex, nil, quietLogger())

	original := testutil.CardJPEG(t, 4, 4)
	_ = store.Write("inbox/card.jpg", original)

	if _, err := p.ProcessImage(context.Background(), "inbox/card.jpg"); err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if sc.calls != 0 {
		t.Errorf("score calls = %d, want 0 with rotation detection off", sc.calls)
	}
	att, _ := store.Read("attachments/Quick.jpg")
	if string(att) != string(original) {
		t.Error("attachment must be the original buffer when rotation is off")
	}
}
