// Copyright (c) 2026 SafHub. All rights reserved.

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/sec"
)

// # Definitions & Constructors

// Config wires a [Resolver] to its collaborators. Namespace defaults to the
// backend client's storage prefix; Notifier defaults to a [LogNotifier].
type Config struct {
	Auth      AuthService
	Roles     RoleStore
	Storage   KeyStore
	Namespace string
	Navigator Navigator
	Notifier  Notifier
	Logger    *slog.Logger
}

// Resolver owns the authenticated-user lifecycle of one UI instance.
type Resolver struct {
	auth      AuthService
	roles     RoleStore
	storage   KeyStore
	namespace string
	navigator Navigator
	notifier  Notifier
	logger    *slog.Logger

	mu           sync.Mutex
	state        State
	mounted      bool
	firstLoad    bool
	generation   uint64
	subscription *client.Subscription
	observers    map[int]func(State)
	nextObserver int
}

// New constructs an unmounted [Resolver].
func New(cfg Config) *Resolver {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = constants.AuthStorageNamespace
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}

	return &Resolver{
		auth:      cfg.Auth,
		roles:     cfg.Roles,
		storage:   cfg.Storage,
		namespace: cfg.Namespace,
		navigator: cfg.Navigator,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		state:     State{Loading: true, Phase: PhaseInitializing},
		observers: make(map[int]func(State)),
	}
}

// # Lifecycle

// trigger says which path delivered a session to the resolver.
type trigger int

const (
	triggerInitialRead trigger = iota
	triggerEvent
	triggerRefresh
)

/*
Start mounts the resolver.

Description: Subscribes to the client's auth-state stream, then reads the
persisted session. Both paths resolve the role independently; Start returns
once the initial read has been applied. Events keep arriving until [Close].
*/
func (resolver *Resolver) Start(context context.Context) {
	resolver.mu.Lock()
	if resolver.mounted {
		resolver.mu.Unlock()
		return
	}
	resolver.mounted = true
	resolver.firstLoad = true
	resolver.mu.Unlock()

	subscription := resolver.auth.OnAuthStateChange(resolver.onAuthStateChange)

	resolver.mu.Lock()
	resolver.subscription = subscription
	resolver.mu.Unlock()

	session, err := resolver.auth.GetSession(context)
	if err != nil {
		resolver.logger.WarnContext(context, "initial_session_read_failed", slog.Any("error", err))
		session = nil
	}

	resolver.apply(context, session, "", triggerInitialRead)
}

// Close unmounts the resolver. In-flight resolutions finish but their
// results are discarded.
func (resolver *Resolver) Close() {
	resolver.mu.Lock()
	resolver.mounted = false
	subscription := resolver.subscription
	resolver.subscription = nil
	resolver.mu.Unlock()

	if subscription != nil {
		subscription.Unsubscribe()
	}
}

// onAuthStateChange runs on the client's delivery goroutine.
func (resolver *Resolver) onAuthStateChange(event client.AuthEvent, session *client.Session) {
	context := context.Background()

	resolver.logger.DebugContext(context, "auth_event_received", slog.String("event", string(event)))

	if event == client.EventSignedOut {
		session = nil
	}
	if resolver.superseded(context, session) {
		resolver.logger.DebugContext(context, "auth_event_superseded", slog.String("event", string(event)))
		return
	}
	resolver.apply(context, session, event, triggerEvent)
}

/*
superseded reports whether session no longer matches what the client has
persisted.

Description: Events queue behind a slow role lookup. By the time a
SIGNED_IN is delivered the user may have signed out or switched accounts,
and applying it would resurrect a dead session. A read failure keeps the
event.
*/
func (resolver *Resolver) superseded(context context.Context, session *client.Session) bool {
	if session == nil || session.User == nil {
		return false
	}

	current, err := resolver.auth.GetSession(context)
	if err != nil {
		resolver.logger.WarnContext(context, "auth_event_session_read_failed", slog.Any("error", err))
		return false
	}
	return current == nil || current.User == nil || current.User.ID != session.User.ID
}

// # State Access

// State returns a snapshot of the current state.
func (resolver *Resolver) State() State {
	resolver.mu.Lock()
	defer resolver.mu.Unlock()
	return resolver.state
}

// Subscribe registers observer for every state change. The returned function
// removes it.
func (resolver *Resolver) Subscribe(observer func(State)) (unsubscribe func()) {
	resolver.mu.Lock()
	id := resolver.nextObserver
	resolver.nextObserver++
	resolver.observers[id] = observer
	resolver.mu.Unlock()

	return func() {
		resolver.mu.Lock()
		delete(resolver.observers, id)
		resolver.mu.Unlock()
	}
}

// update mutates the state under the lock and notifies observers outside it.
// It reports false, changing nothing, when mutate declines or the resolver is
// unmounted.
func (resolver *Resolver) update(mutate func(state *State) bool) bool {
	resolver.mu.Lock()
	if !resolver.mounted || !mutate(&resolver.state) {
		resolver.mu.Unlock()
		return false
	}
	resolver.publishLocked()
	return true
}

// reset clears user, session and role unconditionally, mounted or not.
// Resolutions started before it are abandoned.
func (resolver *Resolver) reset() {
	resolver.mu.Lock()
	resolver.generation++
	resolver.state = State{Phase: PhaseUnauthenticated}
	resolver.publishLocked()
}

// publishLocked releases the lock and hands the snapshot to observers.
func (resolver *Resolver) publishLocked() {
	snapshot := resolver.state
	observers := make([]func(State), 0, len(resolver.observers))
	for _, observer := range resolver.observers {
		observers = append(observers, observer)
	}
	resolver.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}

// # Session Application

/*
apply moves the state machine for a newly observed session.

Description: A nil session (or one without a user) leads to UNAUTHENTICATED.
Otherwise the role is resolved and, when the result still belongs to the
current user and no sign-out happened meanwhile, AUTHENTICATED is written
and the redirect decision runs.
*/
func (resolver *Resolver) apply(context context.Context, session *client.Session, event client.AuthEvent, origin trigger) {
	resolver.mu.Lock()
	generation := resolver.generation
	resolver.mu.Unlock()

	if session == nil || session.User == nil {
		resolver.update(func(state *State) bool {
			*state = State{Phase: PhaseUnauthenticated}
			return true
		})
		resolver.consumeFirstLoad()
		return
	}

	user := session.User
	applied := resolver.update(func(state *State) bool {
		state.Session = session
		state.User = user
		state.Loading = true
		state.Phase = PhaseAuthenticatingRole
		return true
	})
	if !applied {
		return
	}

	role := resolver.resolveRole(context, user)

	applied = resolver.update(func(state *State) bool {
		// A sign-out or another user's session won the race.
		if resolver.generation != generation || state.User == nil || state.User.ID != user.ID {
			return false
		}
		state.Role = role
		state.Loading = false
		state.Phase = PhaseAuthenticated
		return true
	})
	if !applied {
		return
	}

	isFirstLoad := resolver.consumeFirstLoad()

	switch {
	case origin == triggerRefresh, event == client.EventSignedIn:
		resolver.redirect(role, generation)
	case isFirstLoad && resolver.navigator.CurrentPath() == sec.HomePath:
		resolver.redirect(role, generation)
	}
}

// consumeFirstLoad reports true exactly once per mount.
func (resolver *Resolver) consumeFirstLoad() bool {
	resolver.mu.Lock()
	defer resolver.mu.Unlock()
	first := resolver.firstLoad
	resolver.firstLoad = false
	return first
}

// redirect applies the dashboard decision for role against the current path.
// It gives up once the resolver is unmounted or reset past generation.
func (resolver *Resolver) redirect(role sec.UserRole, generation uint64) {
	navigation, ok := RedirectFor(resolver.navigator.CurrentPath(), role)
	if !ok {
		return
	}

	resolver.mu.Lock()
	current := resolver.mounted && resolver.generation == generation
	resolver.mu.Unlock()
	if !current {
		return
	}

	resolver.logger.Info("role_redirect",
		slog.String("role", string(role)),
		slog.String("to", navigation.To),
	)
	resolver.navigator.Navigate(navigation)
}
