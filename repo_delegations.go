package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Delegations interface {
	repository.Repository[*DelegationEdge]

	ListFrom(ctx context.Context, owner uuid.UUID) ([]*DelegationEdge, error)
	ListFromTx(ctx context.Context, tx bun.IDB, owner uuid.UUID) ([]*DelegationEdge, error)
	GetEdgeTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID) (*DelegationEdge, error)
	AddTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID, trust bool) (*DelegationEdge, error)
	SetTrustTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID, trust bool) error
	RemoveTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID) error
	RemoveAllForTx(ctx context.Context, tx bun.IDB, user uuid.UUID) error
}

type delegations struct {
	repository.Repository[*DelegationEdge]
	db *bun.DB
}

var _ Delegations = (*delegations)(nil)

func NewDelegationsRepository(db *bun.DB) Delegations {
	repo := repository.NewRepository[*DelegationEdge](db, repository.ModelHandlers[*DelegationEdge]{
		NewRecord: func() *DelegationEdge { return &DelegationEdge{} },
		GetID: func(e *DelegationEdge) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *DelegationEdge, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &delegations{
		Repository: repo,
		db:         db,
	}
}

func (d *delegations) ListFrom(ctx context.Context, owner uuid.UUID) ([]*DelegationEdge, error) {
	return d.ListFromTx(ctx, d.db, owner)
}

func (d *delegations) ListFromTx(ctx context.Context, tx bun.IDB, owner uuid.UUID) ([]*DelegationEdge, error) {
	var edges []*DelegationEdge
	err := tx.NewSelect().Model(&edges).
		Where("?TableAlias.owner_user_id = ?", owner).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (d *delegations) GetEdgeTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID) (*DelegationEdge, error) {
	record := &DelegationEdge{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.owner_user_id = ?", owner).
		Where("?TableAlias.admin_user_id = ?", admin).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, goerrors.New("delegation not found", goerrors.CategoryNotFound).
			WithMetadata(map[string]any{
				"owner_user_id": owner.String(),
				"admin_user_id": admin.String(),
			})
	}
	return record, nil
}

// AddTx is an idempotent insert: self edges and existing pairs are no-ops.
func (d *delegations) AddTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID, trust bool) (*DelegationEdge, error) {
	if owner == admin {
		return nil, nil
	}

	if existing, err := d.GetEdgeTx(ctx, tx, owner, admin); err == nil {
		return existing, nil
	}

	record := &DelegationEdge{
		ID:          uuid.New(),
		OwnerID:     owner,
		AdminID:     admin,
		TrustAdmins: trust,
	}

	return d.Repository.CreateTx(ctx, tx, record)
}

func (d *delegations) SetTrustTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID, trust bool) error {
	res, err := tx.NewUpdate().Model((*DelegationEdge)(nil)).
		Set("trust_admins = ?", trust).
		Where("owner_user_id = ?", owner).
		Where("admin_user_id = ?", admin).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerrors.New("delegation not found", goerrors.CategoryNotFound).
			WithMetadata(map[string]any{
				"owner_user_id": owner.String(),
				"admin_user_id": admin.String(),
			})
	}

	return nil
}

func (d *delegations) RemoveTx(ctx context.Context, tx bun.IDB, owner, admin uuid.UUID) error {
	_, err := tx.NewDelete().Model((*DelegationEdge)(nil)).
		Where("owner_user_id = ?", owner).
		Where("admin_user_id = ?", admin).
		Exec(ctx)
	return err
}

// RemoveAllForTx deletes every edge touching the user, in either direction.
// Used when purging rows, not by the ordinary delete flow: marking a user
// deleted keeps their edges and relies on recompute to ignore them.
func (d *delegations) RemoveAllForTx(ctx context.Context, tx bun.IDB, user uuid.UUID) error {
	_, err := tx.NewDelete().Model((*DelegationEdge)(nil)).
		Where("owner_user_id = ?", user).
		WhereOr("admin_user_id = ?", user).
		Exec(ctx)
	return err
}
