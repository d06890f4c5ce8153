//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/panyam/humans"
)

// UserDef is the user entity definition produced by UserDirectory
type UserDef struct {
	base   *Base
	table  string
	crypt  *humans.CryptContext
	scopes []func(*gorm.DB) *gorm.DB

	// set when other directories are composed with this one
	groups      *GroupDef
	permissions *PermissionDef
}

// UserDirectory registers the user table on base.
// Options: WithTableName, WithCryptSchemes, WithQueryScopes.
func UserDirectory(base *Base, opts ...Option) (*UserDef, error) {
	if base == nil {
		return nil, humans.ErrNilBase
	}
	o := buildOptions(humans.DefaultUserTable, opts)
	if len(o.schemes) == 0 {
		o.schemes = []string{humans.SchemeBcrypt}
	}
	crypt, err := humans.NewCryptContext(o.schemes...)
	if err != nil {
		return nil, err
	}
	if err := base.register(o.table, &UserModel{}); err != nil {
		return nil, err
	}
	return &UserDef{base: base, table: o.table, crypt: crypt, scopes: o.scopes}, nil
}

// TableName is the storage name of users
func (d *UserDef) TableName() string { return d.table }

// CryptContext is the context new passwords are hashed with
func (d *UserDef) CryptContext() *humans.CryptContext { return d.crypt }

// HasGroups reports whether a group directory was composed with users
func (d *UserDef) HasGroups() bool { return d.groups != nil }

// HasPermissions reports whether a permission directory links to users
func (d *UserDef) HasPermissions() bool { return d.permissions != nil }

// New builds an unsaved user carrying the capabilities of this schema
func (d *UserDef) New(params humans.UserParams) (*humans.User, error) {
	u, err := humans.NewUser(d.crypt, params)
	if err != nil {
		return nil, err
	}
	d.attachEmpty(u)
	return u, nil
}

// Adopt binds a user built elsewhere to this schema's crypt context and
// capabilities, keeping any groups or permissions it already carries
func (d *UserDef) Adopt(u *humans.User) *humans.User {
	u.SetCryptContext(d.crypt)
	d.attachEmpty(u)
	return u
}

func (d *UserDef) attachEmpty(u *humans.User) {
	if _, ok := u.AsGroupMember(); d.groups != nil && !ok {
		u.AttachGroups([]*humans.Group{})
	}
	if _, ok := u.AsPermissionHolder(); d.permissions != nil && !ok {
		u.AttachPermissions([]*humans.Permission{})
	}
}

func validateUser(u *humans.User) error {
	if u.Username == "" {
		return humans.ErrUsernameRequired
	}
	if u.PasswordHash == "" {
		return humans.ErrPasswordRequired
	}
	return nil
}

// insertRow writes a new user row without touching its links
func (d *UserDef) insertRow(tx *gorm.DB, u *humans.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	model := UserToModel(u)
	if err := tx.Table(d.table).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = model.ID, model.CreatedAt, model.UpdatedAt
	return nil
}

// Create inserts a new user and its group and permission links. Linked
// groups and permissions that were never saved are inserted first.
func (d *UserDef) Create(ctx context.Context, db *gorm.DB, u *humans.User) error {
	if u.ID != 0 {
		return fmt.Errorf("user %s already has id %d", u.Username, u.ID)
	}
	return d.Save(ctx, db, u)
}

// Save inserts or updates u. When u carries the membership or permission
// capability, the stored links are replaced by the ones it holds.
func (d *UserDef) Save(ctx context.Context, db *gorm.DB, u *humans.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.ID == 0 {
			if err := d.insertRow(tx, u); err != nil {
				return err
			}
		} else {
			model := UserToModel(u)
			if err := tx.Table(d.table).Save(model).Error; err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}
			u.UpdatedAt = model.UpdatedAt
		}
		return d.syncLinks(tx, u)
	})
}

func (d *UserDef) syncLinks(tx *gorm.DB, u *humans.User) error {
	if member, ok := u.AsGroupMember(); ok && d.groups != nil {
		ids := make([]uint, 0, len(member.Groups()))
		for _, g := range member.Groups() {
			if g.ID == 0 {
				if err := d.groups.insertRow(tx, g); err != nil {
					return err
				}
			}
			ids = append(ids, g.ID)
		}
		if err := d.groups.members.replaceRights(tx, u.ID, uniqueIDs(ids)); err != nil {
			return fmt.Errorf("failed to save user groups: %w", err)
		}
	}
	if holder, ok := u.AsPermissionHolder(); ok && d.permissions != nil {
		ids := make([]uint, 0, len(holder.Permissions()))
		for _, p := range holder.Permissions() {
			if p.ID == 0 {
				if err := d.permissions.insertRow(tx, p); err != nil {
					return err
				}
			}
			ids = append(ids, p.ID)
		}
		if err := d.permissions.userLinks.replaceRights(tx, u.ID, uniqueIDs(ids)); err != nil {
			return fmt.Errorf("failed to save user permissions: %w", err)
		}
	}
	return nil
}

// hydrate converts rows to users and loads the relations of this schema.
// Related groups and permissions are loaded without their own relations.
func (d *UserDef) hydrate(tx *gorm.DB, models []UserModel) ([]*humans.User, error) {
	users := make([]*humans.User, len(models))
	ids := make([]uint, len(models))
	for i := range models {
		users[i] = models[i].ToUser(d.crypt)
		ids[i] = models[i].ID
	}

	if d.groups != nil {
		links, err := d.groups.members.rights(tx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load user groups: %w", err)
		}
		groups, err := d.groups.fetch(tx, flatten(links))
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			u.AttachGroups(pick(groups, links[u.ID]))
		}
	}

	if d.permissions != nil {
		links, err := d.permissions.userLinks.rights(tx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load user permissions: %w", err)
		}
		perms, err := d.permissions.fetch(tx, flatten(links))
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			u.AttachPermissions(pick(perms, links[u.ID]))
		}
	}
	return users, nil
}

// fetch loads users by id with their relations
func (d *UserDef) fetch(tx *gorm.DB, ids []uint) (map[uint]*humans.User, error) {
	models, err := findByIDs[UserModel](tx, d.table, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	users, err := d.hydrate(tx, models)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]*humans.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UserQuery runs user lookups through the host's database handle
type UserQuery struct {
	def *UserDef
	db  *gorm.DB
}

// Query returns the lookups of this directory bound to db
func (d *UserDef) Query(db *gorm.DB) *UserQuery {
	return &UserQuery{def: d, db: db}
}

func (q *UserQuery) base(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).Table(q.def.table).Scopes(q.def.scopes...)
}

func (q *UserQuery) first(tx *gorm.DB, query *gorm.DB) (*humans.User, error) {
	var model UserModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	users, err := q.def.hydrate(tx, []UserModel{model})
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

// FindByUsernameOrEmail returns the first user whose username or email
// address equals value, or nil when there is none. Groups and permissions
// are loaded when the schema has them.
func (q *UserQuery) FindByUsernameOrEmail(ctx context.Context, value string) (*humans.User, error) {
	tx := q.db.WithContext(ctx)
	return q.first(tx, q.base(ctx).Where("username = ? OR email_address = ?", value, value))
}

// Get returns the user with the given id, or nil when there is none
func (q *UserQuery) Get(ctx context.Context, id uint) (*humans.User, error) {
	tx := q.db.WithContext(ctx)
	return q.first(tx, q.base(ctx).Where("id = ?", id))
}

// Authenticate returns the user identified by username or email whose
// password matches, or nil. A matching hash made by a non-preferred scheme
// is replaced by one made with the preferred scheme.
func (q *UserQuery) Authenticate(ctx context.Context, identifier, password string) (*humans.User, error) {
	u, err := q.FindByUsernameOrEmail(ctx, identifier)
	if err != nil || u == nil {
		return nil, err
	}
	if !u.CheckPassword(password) {
		return nil, nil
	}
	if u.PasswordNeedsUpdate() {
		if err := u.SetPassword(password); err != nil {
			slog.Warn("failed to rehash password", "user", u.Username, "error", err)
			return u, nil
		}
		err := q.db.WithContext(ctx).Table(q.def.table).Model(&UserModel{}).
			Where("id = ?", u.ID).
			Update("password_hash", u.PasswordHash).Error
		if err != nil {
			slog.Warn("failed to store rehashed password", "user", u.Username, "error", err)
		}
	}
	return u, nil
}

func flatten(links map[uint][]uint) []uint {
	var ids []uint
	for _, targets := range links {
		ids = append(ids, targets...)
	}
	return uniqueIDs(ids)
}

func pick[T any](byID map[uint]*T, ids []uint) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
