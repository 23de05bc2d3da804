// Package comments gerencia a lista paginada de comentários de um evento.
package comments

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

const DefaultPageSize = 20

var (
	ErrNotOwner     = errors.New("only the author can change this comment")
	ErrNotConfirmed = errors.New("deletion was not confirmed")
	ErrNotEditing   = errors.New("no comment is being edited")
)

// DeletePrompt é a pergunta feita antes de apagar
const DeletePrompt = "Delete this comment? It cannot be restored."

type API interface {
	ListComments(ctx context.Context, eventID string, p api.ListCommentsParams) (events.ListCommentsResult, error)
	CreateComment(ctx context.Context, eventID, content string) (events.Comment, error)
	UpdateComment(ctx context.Context, commentID, content string) (events.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// Viewer é quem está lendo; session.Store satisfaz
type Viewer interface {
	LoggedIn() bool
	Nickname() string
}

// Confirm recebe o prompt e devolve true para prosseguir
type Confirm func(prompt string) bool

type State struct {
	EventID        string
	Items          []events.Comment
	HasMore        bool
	Loading        bool
	Err            error
	EditingID      string
	EditingContent string
}

type Thread struct {
	api    API
	viewer Viewer
	log    *zap.Logger

	PageSize int

	mu             sync.Mutex
	eventID        string
	gen            uint64
	items          []events.Comment
	cursor         string
	hasMore        bool
	loading        bool
	err            error
	editingID      string
	editingContent string
}

func New(a API, viewer Viewer, eventID string, log *zap.Logger) *Thread {
	return &Thread{
		api:      a,
		viewer:   viewer,
		log:      logger.OrNop(log),
		PageSize: DefaultPageSize,
		eventID:  eventID,
	}
}

func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		EventID:        t.eventID,
		Items:          append([]events.Comment(nil), t.items...),
		HasMore:        t.hasMore,
		Loading:        t.loading,
		Err:            t.err,
		EditingID:      t.editingID,
		EditingContent: t.editingContent,
	}
}

// CanModify: autenticado e com apelido igual ao do autor. É só uma aproximação
// de posse; o backend continua sendo quem decide.
func (t *Thread) CanModify(c events.Comment) bool {
	if t.viewer == nil || !t.viewer.LoggedIn() {
		return false
	}
	nick := strings.TrimSpace(t.viewer.Nickname())
	return nick != "" && nick == c.Nickname
}

// Reset troca de evento descartando todo o estado local e carrega a primeira página
func (t *Thread) Reset(ctx context.Context, eventID string) error {
	t.mu.Lock()
	t.eventID = eventID
	t.gen++
	t.items = nil
	t.cursor = ""
	t.hasMore = false
	t.err = nil
	t.editingID = ""
	t.editingContent = ""
	t.mu.Unlock()
	return t.LoadFirst(ctx)
}

// begin marca loading e devolve o evento/geração para checar staleness depois
func (t *Thread) begin() (string, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = true
	t.err = nil
	return t.eventID, t.gen
}

// finish aplica f se a geração ainda for a mesma. Chamar sem o lock.
func (t *Thread) finish(gen uint64, err error, f func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return false
	}
	t.loading = false
	t.err = err
	if f != nil {
		f()
	}
	return true
}

func (t *Thread) LoadFirst(ctx context.Context) error {
	id, gen := t.begin()
	res, err := t.api.ListComments(ctx, id, api.ListCommentsParams{Limit: t.PageSize})
	if err != nil {
		t.finish(gen, err, func() {
			t.items = nil
			t.cursor = ""
			t.hasMore = false
		})
		t.log.Warn("comment list failed", zap.String("event_id", id), zap.Error(err))
		return err
	}
	t.finish(gen, nil, func() { t.applyFirstPage(res) })
	return nil
}

func (t *Thread) applyFirstPage(res events.ListCommentsResult) {
	t.items = append([]events.Comment(nil), res.Comments...)
	t.cursor = deref(res.NextCursor)
	t.hasMore = res.HasMore
}

// LoadMore anexa a próxima página. Sem cursor ou sem has_more é no-op.
func (t *Thread) LoadMore(ctx context.Context) error {
	t.mu.Lock()
	if !t.hasMore || t.cursor == "" || t.loading {
		t.mu.Unlock()
		return nil
	}
	cursor := t.cursor
	t.mu.Unlock()

	id, gen := t.begin()
	res, err := t.api.ListComments(ctx, id, api.ListCommentsParams{Cursor: cursor, Limit: t.PageSize})
	if err != nil {
		t.finish(gen, err, nil)
		return err
	}
	t.finish(gen, nil, func() {
		t.items = append(t.items, res.Comments...)
		t.cursor = deref(res.NextCursor)
		t.hasMore = res.HasMore
	})
	return nil
}

// Create valida, cria e relê a primeira página; se a releitura falhar,
// insere localmente e reordena.
func (t *Thread) Create(ctx context.Context, content string) (events.Comment, error) {
	if err := validate.Comment(content); err != nil {
		return events.Comment{}, err
	}
	id, gen := t.begin()
	created, err := t.api.CreateComment(ctx, id, content)
	if err != nil {
		t.finish(gen, err, nil)
		return events.Comment{}, err
	}

	res, ferr := t.api.ListComments(ctx, id, api.ListCommentsParams{Limit: t.PageSize})
	if ferr != nil {
		t.log.Debug("comment refetch failed, inserting locally", zap.Error(ferr))
		t.finish(gen, nil, func() {
			next := append([]events.Comment{created}, t.items...)
			SortNewestFirst(next)
			t.items = next
		})
		return created, nil
	}
	t.finish(gen, nil, func() { t.applyFirstPage(res) })
	return created, nil
}

// Update substitui o comentário no lugar pelo id
func (t *Thread) Update(ctx context.Context, commentID, content string) (events.Comment, error) {
	if err := validate.Comment(content); err != nil {
		return events.Comment{}, err
	}
	if c, ok := t.find(commentID); ok && !t.CanModify(c) {
		return events.Comment{}, ErrNotOwner
	}
	_, gen := t.begin()
	updated, err := t.api.UpdateComment(ctx, commentID, content)
	if err != nil {
		t.finish(gen, err, nil)
		return events.Comment{}, err
	}
	t.finish(gen, nil, func() {
		for i := range t.items {
			if t.items[i].CommentID == updated.CommentID {
				t.items[i] = updated
			}
		}
		if t.editingID == commentID {
			t.editingID = ""
			t.editingContent = ""
		}
	})
	return updated, nil
}

// Delete exige confirmação e remove o item localmente; cancela a edição dele.
func (t *Thread) Delete(ctx context.Context, commentID string, confirm Confirm) error {
	if c, ok := t.find(commentID); ok && !t.CanModify(c) {
		return ErrNotOwner
	}
	if confirm == nil || !confirm(DeletePrompt) {
		return ErrNotConfirmed
	}
	_, gen := t.begin()
	if err := t.api.DeleteComment(ctx, commentID); err != nil {
		t.finish(gen, err, nil)
		return err
	}
	t.finish(gen, nil, func() {
		t.items = slices.DeleteFunc(t.items, func(c events.Comment) bool { return c.CommentID == commentID })
		if t.editingID == commentID {
			t.editingID = ""
			t.editingContent = ""
		}
	})
	return nil
}

// StartEdit abre a edição com o conteúdo atual
func (t *Thread) StartEdit(commentID string) error {
	c, ok := t.find(commentID)
	if !ok {
		return ErrNotEditing
	}
	if !t.CanModify(c) {
		return ErrNotOwner
	}
	t.mu.Lock()
	t.editingID = c.CommentID
	t.editingContent = c.Content
	t.mu.Unlock()
	return nil
}

func (t *Thread) SetEditContent(s string) {
	t.mu.Lock()
	t.editingContent = s
	t.mu.Unlock()
}

func (t *Thread) CancelEdit() {
	t.mu.Lock()
	t.editingID = ""
	t.editingContent = ""
	t.mu.Unlock()
}

// SaveEdit envia a edição aberta
func (t *Thread) SaveEdit(ctx context.Context) error {
	t.mu.Lock()
	id, content := t.editingID, t.editingContent
	t.mu.Unlock()
	if id == "" {
		return ErrNotEditing
	}
	_, err := t.Update(ctx, id, content)
	return err
}

func (t *Thread) find(commentID string) (events.Comment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.items {
		if c.CommentID == commentID {
			return c, true
		}
	}
	return events.Comment{}, false
}

// SortNewestFirst ordena por created_at desc e comment_id desc no empate
// (ou quando alguma data não faz parse).
func SortNewestFirst(items []events.Comment) {
	slices.SortStableFunc(items, func(a, b events.Comment) int {
		at, aok := parseCreated(a.CreatedAt)
		bt, bok := parseCreated(b.CreatedAt)
		if aok && bok && !at.Equal(bt) {
			return bt.Compare(at)
		}
		return strings.Compare(b.CommentID, a.CommentID)
	})
}

func parseCreated(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
