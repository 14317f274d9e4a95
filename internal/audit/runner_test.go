package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/reconciler/internal/hermes"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

const hangoutsJSON = `{"conversations": [{
  "conversation": {"conversation_id": {"id": "Ugw1"}},
  "events": [
    {"event_id": "e1", "event_type": "REGULAR_CHAT_MESSAGE", "timestamp": "1443635620000000",
     "chat_message": {"message_content": {"segment": [{"type": "TEXT", "text": "hello"}]}}},
    {"event_id": "e2", "event_type": "REGULAR_CHAT_MESSAGE", "timestamp": "1443635700000000",
     "chat_message": {"message_content": {"segment": [{"type": "TEXT", "text": "only in hangouts"}]}}},
    {"event_id": "e3", "event_type": "ADD_USER", "timestamp": "1443635600000000"}
  ]
}]}`

const dmMessages = `{"messages": [
  {"created_date": "Wednesday, September 30, 2015 at 5:53:40 PM UTC", "text": "hello"},
  {"created_date": "Wednesday, September 30, 2015 at 5:53:41 PM UTC", "text": "A call has been attempted"}
]}`

const spaceMessages = `{"messages": [
  {"created_date": "Thursday, October 1, 2015 at 9:00:00 AM UTC", "text": "new in chat"}
]}`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTakeout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	layout := takeout.Layout{Root: root}
	writeFile(t, layout.LegacyPath(), hangoutsJSON)
	writeFile(t, filepath.Join(layout.GroupsDir(), "DM abc", "messages.json"), dmMessages)
	writeFile(t, filepath.Join(layout.GroupsDir(), "Space xyz", "messages.json"), spaceMessages)
	return root
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	runs []*report.Run
	err  error
}

func (f *fakeStore) WriteRun(ctx context.Context, run *report.Run) error {
	f.runs = append(f.runs, run)
	return f.err
}

type fakePublisher struct {
	subjects []string
	payloads []any
}

func (f *fakePublisher) Publish(subject string, data any) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

type fakeNotifier struct {
	texts []string
	err   error
}

func (f *fakeNotifier) PostMessage(ctx context.Context, text string) (string, error) {
	f.texts = append(f.texts, text)
	return "1.0", f.err
}

func TestRunner_Run(t *testing.T) {
	root := writeTakeout(t)
	st := &fakeStore{}
	pub := &fakePublisher{}
	note := &fakeNotifier{}

	r := NewRunner(Config{TakeoutDir: root}, Sinks{Store: st, Publisher: pub, Notifier: note}, discardLogger())
	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.LegacyConversations != 1 || run.LegacyEvents != 3 {
		t.Errorf("legacy counts = %d/%d", run.LegacyConversations, run.LegacyEvents)
	}
	groups := run.Result.Groups
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].GroupID != "DM abc" || groups[0].Matched != 1 || groups[0].Total != 1 {
		t.Errorf("group[0] = %+v", groups[0])
	}
	if groups[1].GroupID != "Space xyz" || groups[1].Matched != 0 || groups[1].Total != 1 {
		t.Errorf("group[1] = %+v", groups[1])
	}
	if len(run.Result.Unmatched) != 1 || run.Result.Unmatched[0].ID != "e2" {
		t.Errorf("unmatched = %+v", run.Result.Unmatched)
	}
	if run.FinishedAt.Before(run.StartedAt) {
		t.Error("finished before started")
	}

	if len(st.runs) != 1 || st.runs[0] != run {
		t.Errorf("expected run to be stored once, got %d", len(st.runs))
	}

	wantSubjects := []string{hermes.SubjectGroupDone, hermes.SubjectGroupDone, hermes.SubjectRunCompleted}
	if strings.Join(pub.subjects, ",") != strings.Join(wantSubjects, ",") {
		t.Errorf("published subjects = %v, want %v", pub.subjects, wantSubjects)
	}
	done, ok := pub.payloads[2].(hermes.RunCompleted)
	if !ok {
		t.Fatalf("expected RunCompleted payload, got %T", pub.payloads[2])
	}
	if done.RunID != run.ID.String() || done.Matched != 1 || done.Total != 2 || done.Unmatched != 1 {
		t.Errorf("run completed event = %+v", done)
	}

	if len(note.texts) != 1 || !strings.Contains(note.texts[0], "Space xyz: 0/1") {
		t.Errorf("summary = %v", note.texts)
	}
}

func TestRunner_GroupPrefix(t *testing.T) {
	root := writeTakeout(t)

	r := NewRunner(Config{TakeoutDir: root, GroupPrefix: "DM"}, Sinks{}, discardLogger())
	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Result.Groups) != 1 || run.Result.Groups[0].GroupID != "DM abc" {
		t.Errorf("groups = %+v", run.Result.Groups)
	}
}

func TestRunner_SinkFailuresAreNotFatal(t *testing.T) {
	root := writeTakeout(t)
	st := &fakeStore{err: errors.New("db down")}
	note := &fakeNotifier{err: errors.New("slack down")}

	r := NewRunner(Config{TakeoutDir: root}, Sinks{Store: st, Notifier: note}, discardLogger())
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("sink failures should not fail the run: %v", err)
	}
	if len(st.runs) != 1 || len(note.texts) != 1 {
		t.Error("expected both sinks to be attempted")
	}
}

func TestRunner_MissingHangouts(t *testing.T) {
	root := writeTakeout(t)
	if err := os.Remove(takeout.Layout{Root: root}.LegacyPath()); err != nil {
		t.Fatal(err)
	}
	st := &fakeStore{}

	r := NewRunner(Config{TakeoutDir: root}, Sinks{Store: st}, discardLogger())
	run, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if run != nil {
		t.Error("expected no run on load failure")
	}
	var le *takeout.LoadError
	if !errors.As(err, &le) {
		t.Errorf("expected *takeout.LoadError, got %v", err)
	}
	if len(st.runs) != 0 {
		t.Error("nothing should be stored after a load failure")
	}
}

func TestRunner_BrokenGroupAborts(t *testing.T) {
	root := writeTakeout(t)
	writeFile(t, filepath.Join(takeout.Layout{Root: root}.GroupsDir(), "DM broken", "messages.json"), `{"messages":`)
	pub := &fakePublisher{}

	r := NewRunner(Config{TakeoutDir: root}, Sinks{Publisher: pub}, discardLogger())
	_, err := r.Run(context.Background())
	var le *takeout.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *takeout.LoadError, got %v", err)
	}
	for _, s := range pub.subjects {
		if s == hermes.SubjectRunCompleted {
			t.Error("run completed must not be published after a load failure")
		}
	}
}

func TestRunner_RequiresDir(t *testing.T) {
	r := NewRunner(Config{}, Sinks{}, discardLogger())
	if _, err := r.Run(context.Background()); err == nil {
		t.Error("expected error without takeout dir")
	}
}

func TestSelectGroups(t *testing.T) {
	names := []string{"DM a", "DM b", "Space c"}
	if got := selectGroups(names, ""); len(got) != 3 {
		t.Errorf("empty prefix should keep all, got %v", got)
	}
	if got := selectGroups(names, "DM"); len(got) != 2 || got[1] != "DM b" {
		t.Errorf("DM prefix = %v", got)
	}
	if got := selectGroups(names, "Room"); len(got) != 0 {
		t.Errorf("no match expected, got %v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/Takeout"); got != filepath.Join(home, "Takeout") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/Takeout"); got != "/abs/Takeout" {
		t.Errorf("absolute path changed: %q", got)
	}
}
