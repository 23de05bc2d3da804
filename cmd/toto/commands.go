package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/account"
	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/comments"
	"github.com/wafflestudio/23-5-team7-web/internal/detail"
	"github.com/wafflestudio/23-5-team7-web/internal/eventlist"
	"github.com/wafflestudio/23-5-team7-web/internal/session"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/config"
	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type app struct {
	cfg   config.Config
	log   *zap.Logger
	store *session.Store
	api   *api.Client
	out   io.Writer
	in    io.Reader
}

func usage(w io.Writer) {
	fmt.Fprint(w, `toto [--api-base URL] <command> [args]

Auth:
  signup --email E --password P --nickname N
  send-code <email>             verify <email> <code>
  login --email E --password P
  google-url                    google-callback --code C [--state S]
  logout                        whoami [--remote]

Events:
  events [--status S] [--liked] [--pages N]
  event <id>
  bet <id> <option-id> <amount>
  like <id>
  status <id> <READY|OPEN|CLOSED|SETTLED|CANCELLED>
  settle <id> <option-id>...

Comments:
  comments <id> [--pages N]
  comment <id> <text>
  comment-edit <id> <comment-id> <text>
  comment-delete <id> <comment-id> [--yes]

Account:
  bets [--status S] [--offset N]
  nickname <new>
  password --current C --new N
  ranking [--limit N]
`)
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "signup":
		return a.signup(ctx, rest)
	case "send-code":
		return a.sendCode(ctx, rest)
	case "verify":
		return a.verify(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "google-url":
		return a.write(map[string]string{"url": a.api.GoogleLoginURL()})
	case "google-callback":
		return a.googleCallback(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx, rest)
	case "events":
		return a.listEvents(ctx, rest)
	case "event":
		return a.showEvent(ctx, rest)
	case "bet":
		return a.bet(ctx, rest)
	case "like":
		return a.like(ctx, rest)
	case "status":
		return a.status(ctx, rest)
	case "settle":
		return a.settle(ctx, rest)
	case "comments":
		return a.listComments(ctx, rest)
	case "comment":
		return a.createComment(ctx, rest)
	case "comment-edit":
		return a.editComment(ctx, rest)
	case "comment-delete":
		return a.deleteComment(ctx, rest)
	case "bets":
		return a.bets(ctx, rest)
	case "nickname":
		return a.nickname(ctx, rest)
	case "password":
		return a.password(ctx, rest)
	case "ranking":
		return a.ranking(ctx, rest)
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// write imprime v como JSON indentado
func (a *app) write(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("toto "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func need(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", what)
	}
	return nil
}

func (a *app) requireLogin() error {
	if !a.store.LoggedIn() {
		return session.ErrNotLoggedIn
	}
	return nil
}

// confirm pergunta no terminal; qualquer coisa diferente de y/yes recusa
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// --- auth

func (a *app) signup(ctx context.Context, args []string) error {
	fs := newFlags("signup")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	nickname := fs.String("nickname", "", "nickname")
	if err := fs.Parse(args); err != nil {
		return err
	}
	nick, err := validate.Nickname(*nickname)
	if err != nil {
		return err
	}
	res, err := a.api.Signup(ctx, events.SignupRequest{
		Email:      strings.TrimSpace(*email),
		Password:   *password,
		Nickname:   nick,
		SocialType: events.SocialLocal,
	})
	if err != nil {
		return err
	}
	return a.write(res)
}

func (a *app) sendCode(ctx context.Context, args []string) error {
	if err := need(args, 1, "send-code <email>"); err != nil {
		return err
	}
	if err := a.api.SendVerificationCode(ctx, args[0]); err != nil {
		return err
	}
	return a.write(map[string]bool{"sent": true})
}

func (a *app) verify(ctx context.Context, args []string) error {
	if err := need(args, 2, "verify <email> <code>"); err != nil {
		return err
	}
	res, err := a.api.VerifyCode(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return a.write(res)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", os.Getenv("TOTO_PASSWORD"), "password (env: TOTO_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("--email and --password required")
	}
	p, err := a.api.Login(ctx, strings.TrimSpace(*email), *password)
	if err != nil {
		return err
	}
	if err := a.store.SetLogin(ctx, p, session.MethodPassword); err != nil {
		return err
	}
	return a.write(map[string]string{"nickname": a.store.Nickname()})
}

func (a *app) googleCallback(ctx context.Context, args []string) error {
	fs := newFlags("google-callback")
	code := fs.String("code", "", "authorization code")
	state := fs.String("state", "", "state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return errors.New("--code required")
	}
	p, err := a.api.GoogleCallback(ctx, *code, *state)
	if err != nil {
		return err
	}
	if err := a.store.SetLogin(ctx, p, session.MethodGoogle); err != nil {
		return err
	}
	return a.write(map[string]any{"nickname": a.store.Nickname(), "is_new_user": p.IsNewUser})
}

func (a *app) logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		a.log.Debug("server logout failed", zap.Error(err))
	}
	return a.store.Clear(ctx, session.ChangeLogout, "")
}

func (a *app) whoami(ctx context.Context, args []string) error {
	fs := newFlags("whoami")
	remote := fs.Bool("remote", false, "fetch the profile from the backend")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*remote {
		snap := a.store.Snapshot()
		return a.write(map[string]any{"logged_in": snap.LoggedIn(), "user": snap.User, "auth_method": snap.AuthMethod})
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	p, err := a.api.GetMyProfile(ctx)
	if err != nil {
		return err
	}
	_ = a.store.UpdateProfile(ctx, events.User{ID: p.UserID, Email: p.Email, Nickname: p.Nickname})
	return a.write(p)
}

// --- eventos

func (a *app) listEvents(ctx context.Context, args []string) error {
	fs := newFlags("events")
	status := fs.String("status", "", "READY|OPEN|CLOSED|SETTLED|CANCELLED")
	liked := fs.Bool("liked", false, "only liked events")
	pages := fs.Int("pages", 1, "pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st := events.EventStatus(strings.ToUpper(*status))
	if st != "" && !st.Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}

	l := eventlist.New(a.api, eventlist.Options{
		PageSize: a.cfg.ListPageSize,
		Timeout:  a.cfg.ListTimeout,
		Logger:   a.log,
	})
	l.SetFilter(ctx, eventlist.Filter{Status: st, LikedOnly: *liked})
	l.Wait()
	for i := 1; i < *pages; i++ {
		if !l.LoadMore(ctx) {
			break
		}
		l.Wait()
	}

	s := l.State()
	if s.Err != nil {
		return s.Err
	}
	return a.write(map[string]any{"events": s.Items, "has_more": s.HasMore})
}

func (a *app) loadEngine(ctx context.Context, id string) (*detail.Engine, error) {
	e := detail.New(a.api, id, a.log)
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (a *app) showEvent(ctx context.Context, args []string) error {
	if err := need(args, 1, "event <id>"); err != nil {
		return err
	}
	e, err := a.loadEngine(ctx, args[0])
	if err != nil {
		return err
	}
	v := e.View()
	p := e.Progress(time.Local)
	return a.write(map[string]any{
		"event":        v.Event,
		"total_amount": v.TotalAmount(),
		"can_bet":      v.CanBet(),
		"progress":     map[string]any{"percent": p.Percent, "label": p.Label},
	})
}

func (a *app) bet(ctx context.Context, args []string) error {
	if err := need(args, 3, "bet <id> <option-id> <amount>"); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	e, err := a.loadEngine(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := e.PlaceBet(ctx, args[1], validate.ParsePointAmount(args[2]))
	if err != nil {
		return err
	}
	return a.write(res)
}

func (a *app) like(ctx context.Context, args []string) error {
	if err := need(args, 1, "like <id>"); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	e, err := a.loadEngine(ctx, args[0])
	if err != nil {
		return err
	}
	if err := e.ToggleLike(ctx); err != nil {
		return err
	}
	v := e.View()
	return a.write(map[string]any{"like_count": v.Event.LikeCount, "is_liked": v.Event.IsLiked})
}

func (a *app) status(ctx context.Context, args []string) error {
	if err := need(args, 2, "status <id> <status>"); err != nil {
		return err
	}
	e, err := a.loadEngine(ctx, args[0])
	if err != nil {
		return err
	}
	if err := e.ChangeStatus(ctx, events.EventStatus(strings.ToUpper(args[1]))); err != nil {
		return err
	}
	return a.write(e.View().Event)
}

func (a *app) settle(ctx context.Context, args []string) error {
	if err := need(args, 2, "settle <id> <option-id>..."); err != nil {
		return err
	}
	e, err := a.loadEngine(ctx, args[0])
	if err != nil {
		return err
	}
	if err := e.Settle(ctx, args[1:]); err != nil {
		return err
	}
	return a.write(e.View().Event)
}

// --- comentários

func (a *app) thread(id string) *comments.Thread {
	return comments.New(a.api, a.store, id, a.log)
}

func (a *app) listComments(ctx context.Context, args []string) error {
	fs := newFlags("comments")
	pages := fs.Int("pages", 1, "pages to load")
	if len(args) == 0 {
		return errors.New("usage: comments <id> [--pages N]")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	th := a.thread(args[0])
	if err := th.LoadFirst(ctx); err != nil {
		return err
	}
	for i := 1; i < *pages && th.State().HasMore; i++ {
		if err := th.LoadMore(ctx); err != nil {
			return err
		}
	}
	s := th.State()
	return a.write(map[string]any{"comments": s.Items, "has_more": s.HasMore})
}

func (a *app) createComment(ctx context.Context, args []string) error {
	if err := need(args, 2, "comment <id> <text>"); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	c, err := a.thread(args[0]).Create(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	return a.write(c)
}

func (a *app) editComment(ctx context.Context, args []string) error {
	if err := need(args, 3, "comment-edit <id> <comment-id> <text>"); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	th := a.thread(args[0])
	if err := th.LoadFirst(ctx); err != nil {
		return err
	}
	c, err := th.Update(ctx, args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return a.write(c)
}

func (a *app) deleteComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: comment-delete <id> <comment-id> [--yes]")
	}
	fs := newFlags("comment-delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	th := a.thread(args[0])
	if err := th.LoadFirst(ctx); err != nil {
		return err
	}
	confirm := a.confirm
	if *yes {
		confirm = func(string) bool { return true }
	}
	if err := th.Delete(ctx, args[1], confirm); err != nil {
		return err
	}
	return a.write(map[string]bool{"deleted": true})
}

// --- conta

func (a *app) account() *account.Service {
	return account.New(a.api, a.store, a.log)
}

func (a *app) bets(ctx context.Context, args []string) error {
	fs := newFlags("bets")
	status := fs.String("status", "", "PENDING|WIN|LOSE|REFUNDED")
	offset := fs.Int("offset", 0, "offset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	d, err := a.account().LoadDashboard(ctx, events.BetStatus(strings.ToUpper(*status)), *offset)
	if err != nil {
		return err
	}
	return a.write(map[string]any{
		"profile":       d.Profile,
		"ranking":       d.Ranking,
		"bets":          d.Bets,
		"total":         d.Total,
		"change_by_bet": d.ChangeByBet,
		"can_prev":      d.CanPrev(),
		"can_next":      d.CanNext(),
	})
}

func (a *app) nickname(ctx context.Context, args []string) error {
	if err := need(args, 1, "nickname <new>"); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	nick, err := a.account().ChangeNickname(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return a.write(map[string]string{"nickname": nick})
}

func (a *app) password(ctx context.Context, args []string) error {
	fs := newFlags("password")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	p, err := a.api.GetMyProfile(ctx)
	if err != nil {
		return err
	}
	if err := a.account().ChangePassword(ctx, p, *current, *next); err != nil {
		return err
	}
	return a.write(map[string]bool{"changed": true})
}

func (a *app) ranking(ctx context.Context, args []string) error {
	fs := newFlags("ranking")
	limit := fs.Int("limit", 20, "entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.api.GetUserRanking(ctx, *limit)
	if err != nil {
		return err
	}
	return a.write(res)
}
