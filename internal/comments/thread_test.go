package comments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type stubAPI struct {
	mu sync.Mutex

	pages   map[string]events.ListCommentsResult
	listErr error
	lists   []api.ListCommentsParams

	created   events.Comment
	createErr error
	creates   []string

	updateErr error
	deleteErr error
	deleted   []string
}

func (s *stubAPI) ListComments(_ context.Context, _ string, p api.ListCommentsParams) (events.ListCommentsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, p)
	if s.listErr != nil {
		return events.ListCommentsResult{}, s.listErr
	}
	return s.pages[p.Cursor], nil
}

func (s *stubAPI) CreateComment(_ context.Context, _ string, content string) (events.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, content)
	if s.createErr != nil {
		return events.Comment{}, s.createErr
	}
	c := s.created
	c.Content = content
	return c, nil
}

func (s *stubAPI) UpdateComment(_ context.Context, id, content string) (events.Comment, error) {
	if s.updateErr != nil {
		return events.Comment{}, s.updateErr
	}
	return events.Comment{CommentID: id, Nickname: "alice", Content: content}, nil
}

func (s *stubAPI) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type viewer struct {
	in   bool
	nick string
}

func (v viewer) LoggedIn() bool   { return v.in }
func (v viewer) Nickname() string { return v.nick }

func strPtr(s string) *string { return &s }

func comment(id, nick, at string) events.Comment {
	return events.Comment{CommentID: id, Nickname: nick, Content: "c" + id, CreatedAt: at}
}

func twoPages() map[string]events.ListCommentsResult {
	return map[string]events.ListCommentsResult{
		"": {
			Comments:   []events.Comment{comment("3", "alice", "2025-01-03T00:00:00Z"), comment("2", "bob", "2025-01-02T00:00:00Z")},
			NextCursor: strPtr("c2"),
			HasMore:    true,
		},
		"c2": {
			Comments: []events.Comment{comment("1", "alice", "2025-01-01T00:00:00Z")},
		},
	}
}

func ids(items []events.Comment) string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.CommentID
	}
	return strings.Join(out, ",")
}

func TestLoadFirstAndMore(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{}, "ev1", nil)
	ctx := context.Background()

	if err := th.LoadFirst(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ids(th.State().Items); got != "3,2" {
		t.Fatalf("first page = %s", got)
	}
	if stub.lists[0].Limit != DefaultPageSize {
		t.Errorf("limit = %d", stub.lists[0].Limit)
	}
	if err := th.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	st := th.State()
	if ids(st.Items) != "3,2,1" || st.HasMore {
		t.Errorf("after more: %s hasMore=%v", ids(st.Items), st.HasMore)
	}

	// sem has_more não busca de novo
	n := len(stub.lists)
	_ = th.LoadMore(ctx)
	if len(stub.lists) != n {
		t.Error("load more ran past the end")
	}
}

func TestLoadFirstFailureClearsList(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{}, "ev1", nil)
	_ = th.LoadFirst(context.Background())

	stub.listErr = errors.New("boom")
	if err := th.LoadFirst(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	st := th.State()
	if len(st.Items) != 0 || st.HasMore || st.Err == nil {
		t.Errorf("state not cleared: %+v", st)
	}
}

func TestCreateValidation(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()

	if _, err := th.Create(ctx, "   \n\t"); !validate.IsValidation(err) {
		t.Errorf("blank accepted: %v", err)
	}
	if _, err := th.Create(ctx, strings.Repeat("가", 501)); !validate.IsValidation(err) {
		t.Errorf("501 chars accepted: %v", err)
	}
	if len(stub.creates) != 0 {
		t.Fatalf("invalid content reached the backend: %d", len(stub.creates))
	}
	if _, err := th.Create(ctx, strings.Repeat("가", 500)); err != nil {
		t.Errorf("500 chars rejected: %v", err)
	}
	if len(stub.creates) != 1 {
		t.Errorf("creates = %d", len(stub.creates))
	}
}

func TestCreateRefetchesFirstPage(t *testing.T) {
	stub := &stubAPI{pages: twoPages(), created: comment("4", "alice", "2025-01-04T00:00:00Z")}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()
	_ = th.LoadFirst(ctx)

	page := stub.pages[""]
	page.Comments = append([]events.Comment{comment("4", "alice", "2025-01-04T00:00:00Z")}, page.Comments...)
	stub.pages[""] = page

	if _, err := th.Create(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if got := ids(th.State().Items); got != "4,3,2" {
		t.Errorf("items = %s", got)
	}
	last := stub.lists[len(stub.lists)-1]
	if last.Cursor != "" {
		t.Errorf("refetch used cursor %q", last.Cursor)
	}
}

func TestCreateFallsBackToLocalInsert(t *testing.T) {
	stub := &stubAPI{pages: twoPages(), created: comment("9", "alice", "bad-date")}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()
	_ = th.LoadFirst(ctx)

	stub.listErr = errors.New("refetch down")
	if _, err := th.Create(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	// data inválida cai no desempate por id
	if got := ids(th.State().Items); got != "9,3,2" {
		t.Errorf("items = %s", got)
	}
}

func TestSortNewestFirst(t *testing.T) {
	items := []events.Comment{
		comment("10", "a", "2025-01-01T00:00:00Z"),
		comment("12", "a", "2025-01-01T00:00:00Z"),
		comment("11", "a", "2025-01-02T00:00:00Z"),
		comment("13", "a", ""),
	}
	SortNewestFirst(items)
	if got := ids(items); got != "13,11,12,10" {
		t.Errorf("order = %s", got)
	}
}

func TestEditFlow(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()
	_ = th.LoadFirst(ctx)

	if err := th.StartEdit("2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("edit of foreign comment: %v", err)
	}
	if err := th.StartEdit("3"); err != nil {
		t.Fatal(err)
	}
	if st := th.State(); st.EditingID != "3" || st.EditingContent != "c3" {
		t.Fatalf("edit state = %+v", st)
	}
	th.SetEditContent("  ")
	if err := th.SaveEdit(ctx); !validate.IsValidation(err) {
		t.Errorf("blank edit saved: %v", err)
	}
	th.SetEditContent("edited")
	if err := th.SaveEdit(ctx); err != nil {
		t.Fatal(err)
	}
	st := th.State()
	if st.EditingID != "" || st.Items[0].Content != "edited" {
		t.Errorf("after save: %+v", st)
	}
	if ids(st.Items) != "3,2" {
		t.Errorf("order changed: %s", ids(st.Items))
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()
	_ = th.LoadFirst(ctx)
	_ = th.StartEdit("3")

	if err := th.Delete(ctx, "3", func(string) bool { return false }); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("declined delete: %v", err)
	}
	if len(stub.deleted) != 0 {
		t.Fatal("backend called without confirmation")
	}
	if err := th.Delete(ctx, "2", func(string) bool { return true }); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign delete: %v", err)
	}

	var prompt string
	if err := th.Delete(ctx, "3", func(p string) bool { prompt = p; return true }); err != nil {
		t.Fatal(err)
	}
	st := th.State()
	if ids(st.Items) != "2" || st.EditingID != "" {
		t.Errorf("after delete: %s editing=%q", ids(st.Items), st.EditingID)
	}
	if prompt == "" {
		t.Error("confirm got no prompt")
	}
}

func TestCanModify(t *testing.T) {
	c := comment("1", "alice", "")
	cases := []struct {
		name string
		v    Viewer
		want bool
	}{
		{"owner", viewer{in: true, nick: "alice"}, true},
		{"other", viewer{in: true, nick: "bob"}, false},
		{"logged out", viewer{in: false, nick: "alice"}, false},
		{"no nickname", viewer{in: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			th := New(&stubAPI{}, tc.v, "ev1", nil)
			if got := th.CanModify(c); got != tc.want {
				t.Errorf("got %v", got)
			}
		})
	}
}

func TestResetOnEventChange(t *testing.T) {
	stub := &stubAPI{pages: twoPages()}
	th := New(stub, viewer{in: true, nick: "alice"}, "ev1", nil)
	ctx := context.Background()
	_ = th.LoadFirst(ctx)
	_ = th.StartEdit("3")

	stub.pages = map[string]events.ListCommentsResult{"": {Comments: []events.Comment{comment("7", "x", "")}}}
	if err := th.Reset(ctx, "ev2"); err != nil {
		t.Fatal(err)
	}
	st := th.State()
	if st.EventID != "ev2" || st.EditingID != "" || ids(st.Items) != "7" || st.HasMore {
		t.Errorf("not reset: %+v", st)
	}
}
