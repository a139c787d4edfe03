package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdminGraph models root-admin delegation. The root admin (level 0) is named
// in static configuration; users it delegates to are primary admins (level 1);
// a trusted primary's own delegations become secondary admins (level 2).
// Every mutation recomputes the materialized is_admin flags inside the same
// transaction as the edge or user change.
type AdminGraph struct {
	repo     RepositoryManager
	sm       UserStateMachine
	rootName string
	logger   Logger
}

type AdminGraphOption func(*AdminGraph)

// WithGraphLogger overrides the graph logger.
func WithGraphLogger(logger Logger) AdminGraphOption {
	return func(g *AdminGraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGraphStateMachine overrides the user lifecycle state machine.
func WithGraphStateMachine(sm UserStateMachine) AdminGraphOption {
	return func(g *AdminGraph) {
		if sm != nil {
			g.sm = sm
		}
	}
}

// NewAdminGraph returns a graph bound to the configured root admin name.
func NewAdminGraph(repo RepositoryManager, cfg Config, opts ...AdminGraphOption) *AdminGraph {
	g := &AdminGraph{
		repo:     repo,
		rootName: cfg.GetRootAdminName(),
		logger:   defLogger{},
	}
	g.sm = NewUserStateMachine(repo.Users())

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Validate ensures the configured root admin is present and not deleted.
// A missing root is a startup-fatal configuration failure, not a
// per-request recoverable one.
func (g *AdminGraph) Validate(ctx context.Context) error {
	if strings.TrimSpace(g.rootName) == "" {
		return goerrors.New("root admin name is required", goerrors.CategoryValidation)
	}

	root, err := g.repo.Users().GetByUsername(ctx, g.rootName)
	if err != nil {
		return goerrors.New("root admin is not present in the user store", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"root_admin": g.rootName})
	}

	if root.Deleted {
		return goerrors.New("root admin row is marked deleted", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"root_admin": g.rootName})
	}

	return nil
}

// AddDelegation records owner -> admin and recomputes effective admins.
// Inserting an existing pair or a self edge is a no-op.
func (g *AdminGraph) AddDelegation(ctx context.Context, actor Identity, owner, admin uuid.UUID, trust bool) error {
	if err := g.authorizeDelegation(actor, owner); err != nil {
		return err
	}

	return g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := g.repo.Delegations().AddTx(ctx, tx, owner, admin, trust); err != nil {
			return err
		}
		return g.RecomputeTx(ctx, tx)
	})
}

// SetTrust toggles trust_admins on an existing edge and recomputes.
func (g *AdminGraph) SetTrust(ctx context.Context, actor Identity, owner, admin uuid.UUID, trust bool) error {
	if err := g.authorizeDelegation(actor, owner); err != nil {
		return err
	}

	return g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := g.repo.Delegations().SetTrustTx(ctx, tx, owner, admin, trust); err != nil {
			return err
		}
		return g.RecomputeTx(ctx, tx)
	})
}

// RemoveDelegation deletes the edge and recomputes.
func (g *AdminGraph) RemoveDelegation(ctx context.Context, actor Identity, owner, admin uuid.UUID) error {
	if err := g.authorizeDelegation(actor, owner); err != nil {
		return err
	}

	return g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := g.repo.Delegations().RemoveTx(ctx, tx, owner, admin); err != nil {
			return err
		}
		return g.RecomputeTx(ctx, tx)
	})
}

// Recompute rebuilds the effective-admin set in its own transaction.
func (g *AdminGraph) Recompute(ctx context.Context) error {
	return g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return g.RecomputeTx(ctx, tx)
	})
}

// RecomputeTx rebuilds the effective-admin set on the caller's transaction.
// Must share the unit of work with whatever mutation made it necessary.
func (g *AdminGraph) RecomputeTx(ctx context.Context, tx bun.IDB) error {
	levels, err := g.levelsTx(ctx, tx)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}

	return g.repo.Users().ApplyAdminFlagsTx(ctx, tx, ids)
}

// CanManage reports whether actor may alter target's account or delegations.
// Root manages everyone. Otherwise the actor must be in the effective set and
// the target must be at the same or a deeper level; ordinary users (no level)
// are manageable by any effective admin. A level-1 admin managing a level-1
// peer is allowed on purpose.
func (g *AdminGraph) CanManage(ctx context.Context, actor Identity, target *User) (bool, error) {
	var ok bool
	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		ok, err = g.canManageTx(ctx, tx, actor, target)
		return err
	})
	return ok && err == nil, err
}

// LockUser suspends the target: sessions die on the next resolution.
func (g *AdminGraph) LockUser(ctx context.Context, actor Identity, targetID uuid.UUID) (*User, error) {
	return g.transitionUser(ctx, actor, targetID, UserStatusLocked)
}

// ReinstateUser clears a lock.
func (g *AdminGraph) ReinstateUser(ctx context.Context, actor Identity, targetID uuid.UUID) (*User, error) {
	return g.transitionUser(ctx, actor, targetID, UserStatusActive)
}

// DeleteUser marks the target deleted. Their delegation edges stay in place
// but stop conveying anything: recompute skips deleted users entirely, so a
// deleted trusted primary's secondaries lose admin in the same transaction.
func (g *AdminGraph) DeleteUser(ctx context.Context, actor Identity, targetID uuid.UUID) (*User, error) {
	return g.transitionUser(ctx, actor, targetID, UserStatusDeleted)
}

func (g *AdminGraph) transitionUser(ctx context.Context, actor Identity, targetID uuid.UUID, status UserStatus) (*User, error) {
	var updated *User

	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target, err := g.repo.Users().GetUserByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}

		if strings.EqualFold(target.Username, g.rootName) {
			return ErrReservedIdentity
		}

		ok, err := g.canManageTx(ctx, tx, actor, target)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}

		updated, err = g.sm.TransitionTx(ctx, tx, actorRefFromIdentity(actor), target, status)
		if err != nil {
			return err
		}

		return g.RecomputeTx(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (g *AdminGraph) canManageTx(ctx context.Context, tx bun.IDB, actor Identity, target *User) (bool, error) {
	if actor == nil || target == nil {
		return false, nil
	}

	if g.isRootActor(actor) {
		return true, nil
	}

	levels, err := g.levelsTx(ctx, tx)
	if err != nil {
		return false, err
	}

	actorID, err := uuid.Parse(actor.ID())
	if err != nil {
		return false, nil
	}

	actorLevel, ok := levels[actorID]
	if !ok {
		return false, nil
	}

	targetLevel, ok := levels[target.ID]
	if !ok {
		// ordinary, non privileged user
		return true, nil
	}

	return targetLevel >= actorLevel, nil
}

// levelsTx walks the delegation graph breadth-first: root, then primaries,
// then the trusted primaries' delegates. Deleted users are skipped during
// expansion, which is what makes DeleteUser cascade authority loss. A user
// reachable at both levels keeps the shallower one. Without a root row
// nothing conveys authority and the effective set is empty; Validate flags
// that as a configuration failure at startup.
func (g *AdminGraph) levelsTx(ctx context.Context, tx bun.IDB) (map[uuid.UUID]int, error) {
	records, err := g.repo.Users().ListUsersTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	var root *User
	byID := make(map[uuid.UUID]*User, len(records))
	for _, u := range records {
		byID[u.ID] = u
		if strings.EqualFold(u.Username, g.rootName) {
			root = u
		}
	}

	levels := map[uuid.UUID]int{}
	if root == nil || root.Deleted {
		return levels, nil
	}
	levels[root.ID] = 0

	rootEdges, err := g.repo.Delegations().ListFromTx(ctx, tx, root.ID)
	if err != nil {
		return nil, err
	}

	var primaries []*DelegationEdge
	for _, edge := range rootEdges {
		admin, ok := byID[edge.AdminID]
		if !ok || admin.Deleted {
			continue
		}
		if _, seen := levels[admin.ID]; seen {
			continue
		}
		levels[admin.ID] = 1
		primaries = append(primaries, edge)
	}

	for _, edge := range primaries {
		if !edge.TrustAdmins {
			continue
		}

		secondEdges, err := g.repo.Delegations().ListFromTx(ctx, tx, edge.AdminID)
		if err != nil {
			return nil, err
		}

		for _, se := range secondEdges {
			admin, ok := byID[se.AdminID]
			if !ok || admin.Deleted {
				continue
			}
			if _, seen := levels[admin.ID]; !seen {
				levels[admin.ID] = 2
			}
		}
	}

	return levels, nil
}

func (g *AdminGraph) authorizeDelegation(actor Identity, owner uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}

	if g.isRootActor(actor) {
		return nil
	}

	if actor.ID() == owner.String() && actor.IsAdmin() {
		return nil
	}

	return ErrForbidden
}

// isRootActor matches the configured root admin by username. Usernames are
// unique case-insensitively, so only the root row (or the virtual bootstrap
// principal) can match.
func (g *AdminGraph) isRootActor(actor Identity) bool {
	return actor != nil && strings.EqualFold(actor.Username(), g.rootName)
}

func actorRefFromIdentity(actor Identity) ActorRef {
	if actor == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{ID: actor.ID(), Type: "user"}
}
