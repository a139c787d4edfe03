package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	ListUsersTx(ctx context.Context, tx bun.IDB) ([]*User, error)
	SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error)
	ApplyAdminFlagsTx(ctx context.Context, tx bun.IDB, adminIDs []uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx creates the user after enforcing case-insensitive username and
// email uniqueness.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	if _, err := a.GetByUsernameTx(ctx, tx, user.Username); err == nil {
		return nil, goerrors.New("username already taken", goerrors.CategoryConflict).
			WithMetadata(map[string]any{"username": user.Username})
	}

	if _, err := a.GetByEmailTx(ctx, tx, user.Email); err == nil {
		return nil, goerrors.New("email already registered", goerrors.CategoryConflict).
			WithMetadata(map[string]any{"email": user.Email})
	}

	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetUserByIDTx(ctx, a.db, id)
}

func (a *users) GetUserByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return a.getByColumnFold(ctx, tx, "username", username)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumnFold(ctx, tx, "email", email)
}

// getByColumnFold does a case-insensitive lookup on a unique column.
func (a *users) getByColumnFold(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("lower(?TableAlias."+column+") = lower(?)", strings.TrimSpace(value)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return record, nil
}

func (a *users) ListUsersTx(ctx context.Context, tx bun.IDB) ([]*User, error) {
	var records []*User
	if err := tx.NewSelect().Model(&records).Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// SetStatusTx writes the flag pair backing the given status. Reinstating
// never resurrects a deleted row; deletion is terminal at the storage level
// too.
func (a *users) SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error) {
	q := tx.NewUpdate().Model((*User)(nil)).Where("id = ?", id)

	switch status {
	case UserStatusActive:
		q = q.Set("is_locked = ?", false).Where("deleted = ?", false)
	case UserStatusLocked:
		q = q.Set("is_locked = ?", true).Where("deleted = ?", false)
	case UserStatusDeleted:
		q = q.Set("deleted = ?", true)
	default:
		return nil, goerrors.New("unknown user status", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"status": status})
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}

	return a.GetUserByIDTx(ctx, tx, id)
}

// ApplyAdminFlagsTx materializes the effective-admin set: clear every flag,
// then set it for the given ids, skipping deleted rows.
func (a *users) ApplyAdminFlagsTx(ctx context.Context, tx bun.IDB, adminIDs []uuid.UUID) error {
	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("is_admin = ?", false).
		Where("is_admin = ?", true).
		Exec(ctx)
	if err != nil {
		return err
	}

	if len(adminIDs) == 0 {
		return nil
	}

	_, err = tx.NewUpdate().Model((*User)(nil)).
		Set("is_admin = ?", true).
		Where("id IN (?)", bun.In(adminIDs)).
		Where("deleted = ?", false).
		Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Username = strings.TrimSpace(record.Username)
	record.Email = strings.TrimSpace(record.Email)
}
