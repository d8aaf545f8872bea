// Package conversation implements the chat state machine that registers
// players, edits profiles and collects daily availability.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/services/matcher"
	"github.com/mcoot/teamfinder/internal/services/profile"
	"github.com/mcoot/teamfinder/internal/session"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Config tunes the engine's replies
type Config struct {
	// MatchLimit caps the teammates listed after confirming windows
	MatchLimit int
	// TodayURL is the "who plays today" link in the main menu, if any
	TodayURL string
	// SessionTimeout bounds each session store call
	SessionTimeout time.Duration
}

// Engine turns inbound events into renders. It never returns an error:
// failures become user-facing replies.
type Engine struct {
	profiles     *profile.Service
	availability *availability.Service
	sessions     session.Store
	cfg          Config
	logger       *slog.Logger
}

// New creates a new conversation Engine
func New(
	profiles *profile.Service,
	availability *availability.Service,
	sessions session.Store,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.MatchLimit == 0 {
		cfg.MatchLimit = matcher.DefaultLimit
	}
	return &Engine{
		profiles:     profiles,
		availability: availability,
		sessions:     sessions,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "conversation")),
	}
}

// Handle processes one event for one user and returns what to show them.
// The user's session is persisted only when the step succeeds; on a store
// failure the user stays exactly where they were.
func (e *Engine) Handle(ctx context.Context, ev model.Event) model.Render {
	action, arg := Classify(ev)

	sess, err := e.loadSession(ctx, ev.UserID)
	if err != nil {
		e.logger.Error("failed to load session",
			slog.String("user", string(ev.UserID)),
			slog.String("error", err.Error()),
		)
		return retryRender()
	}

	state := sess.State
	t := &turn{event: ev, arg: arg, sess: sess}
	render, err := lookup(state, action)(e, ctx, t)
	if err != nil {
		return e.fail(ctx, t, state, action, err)
	}

	if err := e.storeSession(ctx, ev.UserID, t); err != nil {
		e.logger.Error("failed to save session",
			slog.String("user", string(ev.UserID)),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		// The reply must match the stored state
		if !t.reset {
			return retryRender()
		}
	}

	e.logger.Debug("event handled",
		slog.String("user", string(ev.UserID)),
		slog.String("action", string(action)),
		slog.String("from", stateName(state)),
		slog.String("to", stateName(t.sess.State)),
	)
	return render
}

func (e *Engine) fail(ctx context.Context, t *turn, state State, action Action, err error) model.Render {
	attrs := []any{
		slog.String("user", string(t.event.UserID)),
		slog.String("action", string(action)),
		slog.String("state", stateName(state)),
		slog.String("error", err.Error()),
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		e.logger.Info("unregistered user", attrs...)
		entry := &turn{event: t.event, sess: &session.Session{State: StateAwaitNickname}}
		if serr := e.storeSession(ctx, t.event.UserID, entry); serr != nil {
			e.logger.Error("failed to save session", slog.String("error", serr.Error()))
		}
		return registerFirstRender()
	case model.IsValidation(err):
		e.logger.Warn("rejected input", attrs...)
		var ve *model.ValidationError
		errors.As(err, &ve)
		return model.Render{Text: "❌ " + ve.Error(), Options: MainMenuOptions(e.cfg.TodayURL), Notice: "❌ " + ve.Reason}
	default:
		e.logger.Error("step failed", attrs...)
		return retryRender()
	}
}

func (e *Engine) loadSession(ctx context.Context, id model.PlayerID) (*session.Session, error) {
	ctx, cancel := storage.WithTimeout(ctx, e.cfg.SessionTimeout)
	defer cancel()

	sess, err := e.sessions.Get(ctx, id)
	if err != nil {
		return nil, storage.Wrap("get_session", err)
	}
	return sess, nil
}

func (e *Engine) storeSession(ctx context.Context, id model.PlayerID, t *turn) error {
	ctx, cancel := storage.WithTimeout(ctx, e.cfg.SessionTimeout)
	defer cancel()

	if t.reset {
		return storage.Wrap("delete_session", e.sessions.Delete(ctx, id))
	}
	return storage.Wrap("save_session", e.sessions.Save(ctx, id, t.sess))
}

func stateName(s State) string {
	if s == StateIdle {
		return "idle"
	}
	return string(s)
}

// Commands and menus

func (e *Engine) onStart(ctx context.Context, t *turn) (model.Render, error) {
	player, err := e.profiles.Get(ctx, t.event.UserID)
	switch {
	case err == nil:
		t.reset = true
		return model.Render{Text: greetingText(player), Options: MainMenuOptions(e.cfg.TodayURL)}, nil
	case errors.Is(err, model.ErrPlayerNotFound):
		t.sess = &session.Session{State: StateAwaitNickname}
		return model.Render{Text: welcomeText}, nil
	default:
		return model.Render{}, err
	}
}

func (e *Engine) onCancel(ctx context.Context, t *turn) (model.Render, error) {
	t.reset = true
	return model.Render{Text: cancelledText}, nil
}

func (e *Engine) onMenu(ctx context.Context, t *turn) (model.Render, error) {
	if _, err := e.profiles.Get(ctx, t.event.UserID); err != nil {
		return model.Render{}, err
	}
	t.reset = true
	return e.menu(menuText), nil
}

func (e *Engine) onProfile(ctx context.Context, t *turn) (model.Render, error) {
	player, err := e.profiles.Get(ctx, t.event.UserID)
	if err != nil {
		return model.Render{}, err
	}
	t.reset = true
	return model.Render{Text: profileCardText(player) + "\n\nWhat do you want to change?", Options: EditMenuOptions()}, nil
}

func (e *Engine) onIdleText(ctx context.Context, t *turn) (model.Render, error) {
	return e.menu(idleHintText), nil
}

func (e *Engine) onUnexpected(ctx context.Context, t *turn) (model.Render, error) {
	r := e.menu(idleHintText)
	if t.event.Kind == model.EventOption {
		r.Text = staleOptionText
		r.Notice = "⚠️ This button is no longer active"
	}
	return r, nil
}

func (e *Engine) menu(text string) model.Render {
	return model.Render{Text: text, Options: MainMenuOptions(e.cfg.TodayURL)}
}

// Registration and profile edits

func (e *Engine) onEdit(ctx context.Context, t *turn) (model.Render, error) {
	field := model.ProfileField(t.arg)
	if !field.Valid() {
		return e.onUnexpected(ctx, t)
	}
	player, err := e.profiles.Get(ctx, t.event.UserID)
	if err != nil {
		return model.Render{}, err
	}

	t.sess = &session.Session{
		State:    promptState(field),
		Editing:  field,
		Nickname: player.Nickname,
		Rank:     player.Rank,
		Roles:    append([]model.Role(nil), player.Roles...),
	}

	switch field {
	case model.FieldNickname:
		return model.Render{Text: "🎮 Current nickname: " + player.Nickname + "\n\nSend the new one:"}, nil
	case model.FieldRank:
		return model.Render{Text: "📊 Current rank: " + string(player.Rank) + "\n\nPick the new one:", Options: RankOptions()}, nil
	default:
		return rolesPrompt(t.sess), nil
	}
}

func (e *Engine) onNickname(ctx context.Context, t *turn) (model.Render, error) {
	nickname := model.NormalizeNickname(t.arg)
	if err := model.ValidateNickname(nickname); err != nil {
		return model.Render{Text: badNicknameText}, nil
	}

	if t.sess.Editing == model.FieldNickname {
		return e.patch(ctx, t, model.FieldNickname, model.Player{Nickname: nickname})
	}

	t.sess.Nickname = nickname
	t.sess.State = StateAwaitRank
	return model.Render{Text: "✅ Nice! Your nickname is " + nickname + "\n\n📊 Now pick your rank:", Options: RankOptions()}, nil
}

func (e *Engine) repromptRank(ctx context.Context, t *turn) (model.Render, error) {
	return model.Render{Text: "📊 Pick your rank with the buttons:", Options: RankOptions()}, nil
}

func (e *Engine) onRank(ctx context.Context, t *turn) (model.Render, error) {
	rank := model.Rank(t.arg)
	if !rank.Valid() {
		return model.Render{Text: "📊 Pick your rank with the buttons:", Options: RankOptions(), Notice: "Unknown rank"}, nil
	}

	if t.sess.Editing == model.FieldRank {
		return e.patch(ctx, t, model.FieldRank, model.Player{Rank: rank})
	}

	t.sess.Rank = rank
	t.sess.Roles = nil
	t.sess.State = StateAwaitRoles
	return rolesPrompt(t.sess), nil
}

func (e *Engine) repromptRoles(ctx context.Context, t *turn) (model.Render, error) {
	return rolesPrompt(t.sess), nil
}

func (e *Engine) onRoleToggle(ctx context.Context, t *turn) (model.Render, error) {
	role := model.Role(t.arg)
	if !role.Valid() {
		r := rolesPrompt(t.sess)
		r.Notice = "Unknown role"
		return r, nil
	}
	t.sess.Roles = model.ToggleRole(t.sess.Roles, role)
	return rolesPrompt(t.sess), nil
}

func (e *Engine) onRolesDone(ctx context.Context, t *turn) (model.Render, error) {
	if len(t.sess.Roles) == 0 {
		r := rolesPrompt(t.sess)
		r.Notice = "Pick at least one role"
		return r, nil
	}

	if t.sess.Editing == model.FieldRoles {
		return e.patch(ctx, t, model.FieldRoles, model.Player{Roles: t.sess.Roles})
	}

	player, err := e.profiles.Upsert(ctx, model.Player{
		ID:          t.event.UserID,
		DisplayName: t.event.DisplayName,
		Handle:      t.event.Handle,
		Nickname:    t.sess.Nickname,
		Rank:        t.sess.Rank,
		Roles:       t.sess.Roles,
	})
	if err != nil {
		if model.IsValidation(err) {
			// Draft lost part of its data; start registration over
			t.sess = &session.Session{State: StateAwaitNickname}
			return model.Render{Text: restartRegistrationText}, nil
		}
		return model.Render{}, err
	}

	t.reset = true
	return model.Render{
		Text:    "✅ Registration complete!\n\n" + profileCardText(player) + "\n\nNow you can look for teammates!",
		Options: MainMenuOptions(e.cfg.TodayURL),
	}, nil
}

func (e *Engine) patch(ctx context.Context, t *turn, field model.ProfileField, draft model.Player) (model.Render, error) {
	player, err := e.profiles.Patch(ctx, t.event.UserID, field, draft)
	if err != nil {
		return model.Render{}, err
	}
	t.reset = true
	return model.Render{
		Text:    "✅ Profile updated\n\n" + profileCardText(player),
		Options: MainMenuOptions(e.cfg.TodayURL),
	}, nil
}

func rolesPrompt(sess *session.Session) model.Render {
	text := "🎯 Pick the roles you play (several allowed)"
	if sess.Editing == "" && sess.Rank != "" {
		text = "✅ Rank: " + string(sess.Rank) + "\n\n" + text
	}
	if n := len(sess.Roles); n > 0 {
		text += "\nSelected: " + roleNames(sess.Roles)
	}
	return model.Render{Text: text, Options: RoleOptions(sess.Roles)}
}

// Daily availability

func (e *Engine) onPlayToday(ctx context.Context, t *turn) (model.Render, error) {
	windows, err := e.beginPlan(ctx, t)
	if err != nil {
		return model.Render{}, err
	}
	return windowsPrompt(pickWindowsText, windows, ""), nil
}

func (e *Engine) onChangePlan(ctx context.Context, t *turn) (model.Render, error) {
	windows, err := e.beginPlan(ctx, t)
	if err != nil {
		return model.Render{}, err
	}
	return windowsPrompt(changePlanText(windows), windows, ""), nil
}

// beginPlan seeds the window draft from today's stored declaration
func (e *Engine) beginPlan(ctx context.Context, t *turn) ([]model.TimeWindow, error) {
	if _, err := e.profiles.Get(ctx, t.event.UserID); err != nil {
		return nil, err
	}
	windows, err := e.currentWindows(ctx, t.event.UserID)
	if err != nil {
		return nil, err
	}
	t.sess = &session.Session{Windows: windows, WindowsLoaded: true, WindowsDate: e.availability.Today()}
	return windows, nil
}

func (e *Engine) currentWindows(ctx context.Context, id model.PlayerID) ([]model.TimeWindow, error) {
	decl, err := e.availability.Get(ctx, id, e.availability.Today())
	switch {
	case err == nil:
		if decl.IsAvailable {
			return decl.Windows, nil
		}
		return []model.TimeWindow{}, nil
	case errors.Is(err, model.ErrDeclarationNotFound):
		return []model.TimeWindow{}, nil
	default:
		return nil, err
	}
}

// ensureWindows reloads the draft if the session expired mid-selection or
// the draft was started on an earlier day
func (e *Engine) ensureWindows(ctx context.Context, t *turn) error {
	today := e.availability.Today()
	if t.sess.WindowsLoaded && t.sess.WindowsDate == today {
		return nil
	}
	windows, err := e.currentWindows(ctx, t.event.UserID)
	if err != nil {
		return err
	}
	t.sess.Windows = windows
	t.sess.WindowsLoaded = true
	t.sess.WindowsDate = today
	return nil
}

func (e *Engine) onSlot(ctx context.Context, t *turn) (model.Render, error) {
	if t.sess.State != StateIdle {
		return e.resumePrompt(t), nil
	}
	window := model.TimeWindow(t.arg)
	if !window.Valid() {
		return e.onUnexpected(ctx, t)
	}
	if err := e.ensureWindows(ctx, t); err != nil {
		return model.Render{}, err
	}
	t.sess.Windows = model.ToggleWindow(t.sess.Windows, window)
	return windowsPrompt(pickWindowsText, t.sess.Windows, ""), nil
}

// resumePrompt repeats the question of an unfinished registration or edit
func (e *Engine) resumePrompt(t *turn) model.Render {
	var r model.Render
	switch t.sess.State {
	case StateAwaitNickname:
		r = model.Render{Text: nicknamePromptText}
	case StateAwaitRank:
		r = model.Render{Text: "📊 Pick your rank with the buttons:", Options: RankOptions()}
	default:
		r = rolesPrompt(t.sess)
	}
	r.Notice = finishStepNotice
	return r
}

func (e *Engine) onSlotsConfirm(ctx context.Context, t *turn) (model.Render, error) {
	if t.sess.State != StateIdle {
		return e.resumePrompt(t), nil
	}
	if err := e.ensureWindows(ctx, t); err != nil {
		return model.Render{}, err
	}
	if len(t.sess.Windows) == 0 {
		return windowsPrompt(noWindowsText, nil, "❌ Pick at least one time window"), nil
	}

	id := t.event.UserID
	if _, err := e.profiles.Get(ctx, id); err != nil {
		return model.Render{}, err
	}

	today := e.availability.Today()
	decl, err := e.availability.Declare(ctx, id, today, t.sess.Windows)
	if err != nil {
		return model.Render{}, err
	}

	candidates, err := e.availability.Available(ctx, today)
	if err != nil {
		return model.Render{}, err
	}
	matches := matcher.Find(matcher.Query{
		Date:    today,
		Windows: decl.Windows,
		Exclude: id,
		Limit:   e.cfg.MatchLimit,
	}, candidates)

	e.logger.Info("availability confirmed",
		slog.String("player", string(id)),
		slog.String("date", string(today)),
		slog.Int("windows", len(decl.Windows)),
		slog.Int("matches", len(matches)),
	)

	t.reset = true
	return model.Render{Text: confirmationText(today, decl.Windows, matches), Options: MainMenuOptions(e.cfg.TodayURL)}, nil
}

func (e *Engine) onNotPlaying(ctx context.Context, t *turn) (model.Render, error) {
	id := t.event.UserID
	if _, err := e.profiles.Get(ctx, id); err != nil {
		return model.Render{}, err
	}
	if _, err := e.availability.DeclareUnavailable(ctx, id, e.availability.Today()); err != nil {
		return model.Render{}, err
	}
	t.reset = true
	return e.menu(notPlayingText), nil
}

func (e *Engine) onSlotsCancel(ctx context.Context, t *turn) (model.Render, error) {
	t.reset = true
	return e.menu(selectionCancelledText), nil
}

func windowsPrompt(text string, selected []model.TimeWindow, notice string) model.Render {
	if n := len(selected); n > 0 {
		text += "\nSelected: " + windowNames(selected)
	}
	return model.Render{Text: text, Options: WindowOptions(selected), Notice: notice}
}
