package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const (
	textCodeInvalidTransition = "INVALID_USER_STATE_TRANSITION"
	textCodeTerminalState     = "TERMINAL_USER_STATE"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from a terminal status (deleted).
var ErrTerminalState = goerrors.New("user state is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalState).
	WithCode(goerrors.CodeConflict)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reason string
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// UserStateMachine defines lifecycle operations for users. Transitions are
// persisted through the Users repository on the caller's transaction so the
// admin-flag recompute can share the same unit of work.
type UserStateMachine interface {
	TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error)
	CurrentStatus(user *User) UserStatus
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*userStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *userStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger used for transition records.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *userStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// Allowed moves: active <-> locked, anything -> deleted, deleted is terminal.
var userStateTransitions = map[UserStatus][]UserStatus{
	UserStatusActive:  {UserStatusLocked, UserStatusDeleted},
	UserStatusLocked:  {UserStatusActive, UserStatusDeleted},
	UserStatusDeleted: {},
}

type userStateMachine struct {
	repo   Users
	now    func() time.Time
	logger Logger
}

// NewUserStateMachine builds the default lifecycle state machine.
func NewUserStateMachine(repo Users, opts ...StateMachineOption) UserStateMachine {
	sm := &userStateMachine{
		repo:   repo,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

func (sm *userStateMachine) CurrentStatus(user *User) UserStatus {
	return user.Status()
}

func (sm *userStateMachine) TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error) {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	current := user.Status()
	if current == target {
		return user, nil
	}

	if len(userStateTransitions[current]) == 0 {
		return nil, ErrTerminalState
	}

	if !transitionAllowed(current, target) {
		return nil, ErrInvalidTransition
	}

	updated, err := sm.repo.SetStatusTx(ctx, tx, user.ID, target)
	if err != nil {
		return nil, err
	}

	sm.logger.Info("user state transition",
		"user_id", user.ID.String(),
		"from", current,
		"to", target,
		"actor", actor.ID,
		"reason", options.reason,
		"at", sm.now().Format(time.RFC3339),
	)

	return updated, nil
}

func transitionAllowed(from, to UserStatus) bool {
	for _, allowed := range userStateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
