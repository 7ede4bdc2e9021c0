package dialog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/kinobot/internal/catalog"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/extract"
	"github.com/soyeahso/kinobot/internal/llm"
	"github.com/soyeahso/kinobot/internal/logging"
	"github.com/soyeahso/kinobot/internal/prompt"
)

// Reserved choice tokens understood by the engine in addition to catalog
// option tokens.
const (
	TokenBackToGenres = "back:genres"
	TokenBackToYears  = "back:years"
	TokenGenresDone   = "genres:done"
	TokenStartOver    = "start:over"
)

// User-facing reply texts.
const (
	msgSearching    = "Looking for the best films, one moment..."
	msgModelFailed  = "Something went wrong while fetching recommendations. Please try again later."
	msgBadOption    = "That option isn't available. Pick one of the buttons below."
	msgUnrecognized = "I didn't understand that. Send /start to begin a new search."
	msgCancelled    = "Search cancelled. Send /start to begin again."
	msgStartOver    = "Want to try again?"
	msgPickAtLeast  = "Pick at least one genre before continuing."
	msgEnterText    = "Type a few keywords describing the film you're after."
)

// UserStore persists user profiles. Failures never block the dialog.
type UserStore interface {
	UpsertUser(ctx context.Context, key domain.UserKey, profile domain.UserProfile) error
}

// RequestStore persists completed recommendation requests. Failures never
// block the dialog.
type RequestStore interface {
	RecordRequest(ctx context.Context, req domain.RecommendationRequest) error
}

// Notifier observes successfully persisted recommendations.
type Notifier interface {
	RecommendationSaved(req domain.RecommendationRequest)
}

// Config tunes engine behavior.
type Config struct {
	// MaxGenres is how many genres a user may select (1..3). With 1 the
	// first pick advances the dialog; with more, picks toggle and a Done
	// button confirms.
	MaxGenres int
}

// Engine is the conversation state machine. It owns the session store and
// drives the completion pipeline when keywords arrive.
type Engine struct {
	cfg      Config
	sessions *SessionStore
	model    llm.Client
	users    UserStore
	requests RequestStore
	notifier Notifier
	log      *logging.Logger
}

// NewEngine creates a dialog engine.
func NewEngine(cfg Config, model llm.Client, users UserStore, requests RequestStore, log *logging.Logger) *Engine {
	if cfg.MaxGenres < 1 {
		cfg.MaxGenres = 1
	}
	return &Engine{
		cfg:      cfg,
		sessions: NewSessionStore(),
		model:    model,
		users:    users,
		requests: requests,
		log:      log.Sub("dialog"),
	}
}

// SetNotifier registers an observer for persisted recommendations.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// ActiveSessions returns the number of dialogs currently in progress.
func (e *Engine) ActiveSessions() int {
	return e.sessions.Count()
}

// Handle processes one inbound event, emitting zero or more replies. All
// failures are resolved within the turn: nothing propagates to the
// caller and an illegal event never changes state.
func (e *Engine) Handle(ctx context.Context, ev domain.Event, emit func(domain.Reply)) {
	unlock := e.sessions.Lock(ev.Key)
	defer unlock()

	switch ev.Type {
	case domain.EventStart:
		e.handleStart(ctx, ev, emit)

	case domain.EventCancel:
		e.sessions.Delete(ev.Key)
		emit(domain.NewMessage(msgCancelled))

	case domain.EventChoice:
		if ev.Token == TokenStartOver {
			e.handleStart(ctx, ev, emit)
			return
		}
		e.handleChoice(ev, emit)

	case domain.EventText:
		e.handleText(ctx, ev, emit)

	default:
		emit(domain.NewMessage(msgUnrecognized))
	}
}

// handleStart clears any existing session, records the user profile, and
// opens a fresh dialog at the genre step.
func (e *Engine) handleStart(ctx context.Context, ev domain.Event, emit func(domain.Reply)) {
	if ev.Profile != nil {
		if err := e.users.UpsertUser(ctx, ev.Key, *ev.Profile); err != nil {
			e.log.Error().Err(err).Str("user", ev.Key.String()).Msg("failed to upsert user profile")
		}
	}

	sess := &Session{Key: ev.Key, State: StateGenre}
	e.sessions.Put(sess)

	greeting := "Pick a genre:"
	if ev.Profile != nil && ev.Profile.FirstName != "" {
		greeting = "Hi, " + ev.Profile.FirstName + "! Pick a genre:"
	}
	emit(domain.NewPrompt(greeting, e.genreOptions(sess)))
}

// handleChoice validates a discrete selection against the current state.
func (e *Engine) handleChoice(ev domain.Event, emit func(domain.Reply)) {
	sess := e.sessions.Get(ev.Key)
	if sess == nil {
		emit(domain.NewMessage(msgUnrecognized))
		return
	}

	switch sess.State {
	case StateGenre:
		e.chooseGenre(sess, ev.Token, emit)

	case StateYear:
		if ev.Token == TokenBackToGenres {
			sess.YearRange = ""
			sess.State = StateGenre
			emit(domain.NewPrompt("Pick a genre:", e.genreOptions(sess)))
			return
		}
		e.chooseYearRange(sess, ev.Token, emit)

	case StateKeywords:
		if ev.Token == TokenBackToYears {
			sess.Keywords = ""
			sess.State = StateYear
			emit(domain.NewPrompt(e.yearPromptText(sess), yearOptions()))
			return
		}
		emit(domain.NewMessage(msgUnrecognized))

	default:
		emit(domain.NewMessage(msgUnrecognized))
	}
}

// chooseGenre applies a genre pick. With MaxGenres of 1 the pick advances
// immediately; otherwise picks toggle until the Done token arrives.
func (e *Engine) chooseGenre(sess *Session, token string, emit func(domain.Reply)) {
	if token == TokenGenresDone && e.cfg.MaxGenres > 1 {
		if len(sess.Genres) == 0 {
			emit(domain.NewError(msgPickAtLeast))
			return
		}
		sess.State = StateYear
		emit(domain.NewPrompt(e.yearPromptText(sess), yearOptions()))
		return
	}

	value, err := catalog.ResolveGenre(token)
	if err != nil {
		emit(domain.NewError(msgBadOption))
		return
	}

	if e.cfg.MaxGenres == 1 {
		sess.Genres = []string{value}
		sess.State = StateYear
		emit(domain.NewPrompt(e.yearPromptText(sess), yearOptions()))
		return
	}

	if !sess.hasGenre(value) && len(sess.Genres) >= e.cfg.MaxGenres {
		emit(domain.NewError("You can pick up to " + strconv.Itoa(e.cfg.MaxGenres) + " genres."))
		return
	}
	sess.toggleGenre(value)

	text := "Pick up to " + strconv.Itoa(e.cfg.MaxGenres) + " genres, then press Done."
	if len(sess.Genres) > 0 {
		text = "Selected: " + strings.Join(sess.Genres, ", ") + ". Pick more or press Done."
	}
	emit(domain.NewPrompt(text, e.genreOptions(sess)))
}

// chooseYearRange applies a year-range pick and advances to keywords.
func (e *Engine) chooseYearRange(sess *Session, token string, emit func(domain.Reply)) {
	value, err := catalog.ResolveYearRange(token)
	if err != nil {
		emit(domain.NewError(msgBadOption))
		return
	}

	sess.YearRange = value
	sess.State = StateKeywords
	text := "Genre: " + strings.Join(sess.Genres, ", ") + "\nYears: " + value + "\n\n" + msgEnterText
	emit(domain.NewPrompt(text, []domain.Option{{Label: "Back", Token: TokenBackToYears}}))
}

// handleText accepts keywords and runs the completion pipeline.
func (e *Engine) handleText(ctx context.Context, ev domain.Event, emit func(domain.Reply)) {
	sess := e.sessions.Get(ev.Key)
	if sess == nil || sess.State != StateKeywords {
		emit(domain.NewMessage(msgUnrecognized))
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		emit(domain.NewMessage(msgEnterText))
		return
	}

	sess.Keywords = text
	e.complete(ctx, sess, emit)
}

// complete runs the terminal pipeline: build prompt, call the model,
// extract titles, persist. The session is destroyed regardless of model
// outcome; persistence failures are logged and swallowed so the user
// still gets their answer.
func (e *Engine) complete(ctx context.Context, sess *Session, emit func(domain.Reply)) {
	emit(domain.NewMessage(msgSearching))

	defer e.sessions.Delete(sess.Key)

	genres := strings.Join(sess.Genres, ", ")
	years := sess.YearRange

	p, err := prompt.Build(sess.Genres, []string{years}, sess.Keywords)
	if err != nil {
		// Legal transitions always arrive here with non-empty selections.
		e.log.Error().Err(err).Str("user", sess.Key.String()).Msg("prompt build failed")
		emit(domain.NewError(msgModelFailed))
		emit(domain.NewPrompt(msgStartOver, startOverOptions()))
		return
	}

	start := time.Now()
	response, err := e.model.Generate(ctx, p)
	if err != nil {
		e.log.Error().Err(err).Str("user", sess.Key.String()).Msg("model generation failed")
		emit(domain.NewError(msgModelFailed))
		emit(domain.NewPrompt(msgStartOver, startOverOptions()))
		return
	}

	titles := extract.Extract(response)
	e.log.Info().
		Str("user", sess.Key.String()).
		Str("genres", genres).
		Str("years", years).
		Int("titles", titles.Count()).
		Dur("duration", time.Since(start)).
		Msg("recommendations generated")

	emit(domain.NewMessage(response))

	req := domain.RecommendationRequest{
		Key:           sess.Key,
		Genres:        genres,
		Years:         years,
		Keywords:      sess.Keywords,
		ModelResponse: response,
		Titles:        [3]string(titles),
		RequestedAt:   time.Now(),
	}
	if err := e.requests.RecordRequest(ctx, req); err != nil {
		e.log.Error().Err(err).Str("user", sess.Key.String()).Msg("failed to record request")
	} else if e.notifier != nil {
		e.notifier.RecommendationSaved(req)
	}

	emit(domain.NewPrompt(msgStartOver, startOverOptions()))
}

// yearPromptText renders the year-step prompt with the chosen genres.
func (e *Engine) yearPromptText(sess *Session) string {
	return "You picked: " + strings.Join(sess.Genres, ", ") + "\n\nNow pick a year range:"
}

// genreOptions returns the genre buttons, marking already-selected genres
// so a user returning from the year step sees their previous pick.
func (e *Engine) genreOptions(sess *Session) []domain.Option {
	opts := catalog.Genres()
	if len(sess.Genres) > 0 {
		marked := make([]domain.Option, len(opts))
		copy(marked, opts)
		for i, opt := range marked {
			value := strings.TrimPrefix(opt.Token, "genre:")
			if sess.hasGenre(value) {
				marked[i].Label = "✓ " + opt.Label
			}
		}
		opts = marked
	}
	if e.cfg.MaxGenres > 1 {
		opts = append(opts, domain.Option{Label: "Done", Token: TokenGenresDone})
	}
	return opts
}

// yearOptions returns the year-range buttons plus back navigation.
func yearOptions() []domain.Option {
	opts := catalog.YearRanges()
	return append(opts, domain.Option{Label: "Back", Token: TokenBackToGenres})
}

func startOverOptions() []domain.Option {
	return []domain.Option{{Label: "Start a new search", Token: TokenStartOver}}
}
