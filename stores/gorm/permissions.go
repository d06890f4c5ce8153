//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panyam/humans"
)

// PermissionDef is the permission entity definition produced by
// PermissionDirectory
type PermissionDef struct {
	base   *Base
	table  string
	users  *UserDef
	groups *GroupDef

	userLinks  relation
	groupLinks relation
}

// PermissionDirectory registers the permission table on base. With
// WithUsers it adds the user/permission join table and gives users the
// permission capability; with WithGroups it adds the group/permission join
// table. Either, both or neither may be given.
// Options: WithTableName, WithUsers, WithGroups.
func PermissionDirectory(base *Base, opts ...Option) (*PermissionDef, error) {
	if base == nil {
		return nil, humans.ErrNilBase
	}
	o := buildOptions(humans.DefaultPermissionTable, opts)
	if o.users != nil {
		if o.users.base != base {
			return nil, humans.ErrBaseMismatch
		}
		if o.users.permissions != nil {
			return nil, fmt.Errorf("%w: users", humans.ErrAlreadyLinked)
		}
	}
	if o.groups != nil {
		if o.groups.base != base {
			return nil, humans.ErrBaseMismatch
		}
		if o.groups.permissions != nil {
			return nil, fmt.Errorf("%w: groups", humans.ErrAlreadyLinked)
		}
	}

	d := &PermissionDef{base: base, table: o.table, users: o.users, groups: o.groups}
	if err := base.register(d.table, &PermissionModel{}); err != nil {
		return nil, err
	}
	if d.users != nil {
		d.userLinks = relation{
			table:    humans.JoinTableName(d.users.table, d.table),
			leftCol:  "user_id",
			rightCol: "permission_id",
			model:    func() any { return &UserPermissionLink{} },
		}
		if err := base.register(d.userLinks.table, &UserPermissionLink{},
			reference{column: "user_id", table: d.users.table},
			reference{column: "permission_id", table: d.table}); err != nil {
			return nil, err
		}
		d.users.permissions = d
	}
	if d.groups != nil {
		d.groupLinks = relation{
			table:    humans.JoinTableName(d.groups.table, d.table),
			leftCol:  "group_id",
			rightCol: "permission_id",
			model:    func() any { return &GroupPermissionLink{} },
		}
		if err := base.register(d.groupLinks.table, &GroupPermissionLink{},
			reference{column: "group_id", table: d.groups.table},
			reference{column: "permission_id", table: d.table}); err != nil {
			return nil, err
		}
		d.groups.permissions = d
	}
	return d, nil
}

// TableName is the storage name of permissions
func (d *PermissionDef) TableName() string { return d.table }

// UserLinkTable is the user/permission join table, or "" without users
func (d *PermissionDef) UserLinkTable() string { return d.userLinks.table }

// GroupLinkTable is the group/permission join table, or "" without groups
func (d *PermissionDef) GroupLinkTable() string { return d.groupLinks.table }

// New builds an unsaved permission
func (d *PermissionDef) New(name string) *humans.Permission {
	p := humans.NewPermission(name)
	if d.users != nil {
		p.Users = []*humans.User{}
	}
	if d.groups != nil {
		p.Groups = []*humans.Group{}
	}
	return p
}

func (d *PermissionDef) insertRow(tx *gorm.DB, p *humans.Permission) error {
	if p.Name == "" {
		return humans.ErrNameRequired
	}
	model := PermissionToModel(p)
	if err := tx.Table(d.table).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}
	p.ID = model.ID
	return nil
}

// Create inserts a new permission and its links
func (d *PermissionDef) Create(ctx context.Context, db *gorm.DB, p *humans.Permission) error {
	if p.ID != 0 {
		return fmt.Errorf("permission %s already has id %d", p.Name, p.ID)
	}
	return d.Save(ctx, db, p)
}

// Save inserts or updates p. Non-nil Users and Groups replace the stored
// links of configured relations, inserting entities that were never saved.
func (d *PermissionDef) Save(ctx context.Context, db *gorm.DB, p *humans.Permission) error {
	if p.Name == "" {
		return humans.ErrNameRequired
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ID == 0 {
			if err := d.insertRow(tx, p); err != nil {
				return err
			}
		} else if err := tx.Table(d.table).Save(PermissionToModel(p)).Error; err != nil {
			return fmt.Errorf("failed to save permission: %w", err)
		}

		if p.Users != nil && d.users != nil {
			ids := make([]uint, 0, len(p.Users))
			for _, u := range p.Users {
				if u.ID == 0 {
					if err := d.users.insertRow(tx, u); err != nil {
						return err
					}
				}
				ids = append(ids, u.ID)
			}
			if err := d.userLinks.replaceLefts(tx, p.ID, uniqueIDs(ids)); err != nil {
				return fmt.Errorf("failed to save permission users: %w", err)
			}
		}

		if p.Groups != nil && d.groups != nil {
			ids := make([]uint, 0, len(p.Groups))
			for _, g := range p.Groups {
				if g.ID == 0 {
					if err := d.groups.insertRow(tx, g); err != nil {
						return err
					}
				}
				ids = append(ids, g.ID)
			}
			if err := d.groupLinks.replaceLefts(tx, p.ID, uniqueIDs(ids)); err != nil {
				return fmt.Errorf("failed to save permission groups: %w", err)
			}
		}
		return nil
	})
}

// GrantUser links a saved permission to a saved user
func (d *PermissionDef) GrantUser(ctx context.Context, db *gorm.DB, p *humans.Permission, u *humans.User) error {
	if d.users == nil {
		return humans.ErrPermissionsNotConfigured
	}
	if p.ID == 0 || u.ID == 0 {
		return fmt.Errorf("permission and user must be saved before linking")
	}
	if err := d.userLinks.link(db.WithContext(ctx), u.ID, p.ID); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	p.GrantUser(u)
	return nil
}

// GrantGroup links a saved permission to a saved group
func (d *PermissionDef) GrantGroup(ctx context.Context, db *gorm.DB, p *humans.Permission, g *humans.Group) error {
	if d.groups == nil {
		return humans.ErrPermissionsNotConfigured
	}
	if p.ID == 0 || g.ID == 0 {
		return fmt.Errorf("permission and group must be saved before linking")
	}
	if err := d.groupLinks.link(db.WithContext(ctx), g.ID, p.ID); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	p.GrantGroup(g)
	return nil
}

// fetch loads permissions by id without their relations
func (d *PermissionDef) fetch(tx *gorm.DB, ids []uint) (map[uint]*humans.Permission, error) {
	models, err := findByIDs[PermissionModel](tx, d.table, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	out := make(map[uint]*humans.Permission, len(models))
	for i := range models {
		out[models[i].ID] = models[i].ToPermission()
	}
	return out, nil
}

func (d *PermissionDef) hydrate(tx *gorm.DB, p *humans.Permission) error {
	if d.users != nil {
		links, err := d.userLinks.lefts(tx, []uint{p.ID})
		if err != nil {
			return fmt.Errorf("failed to load permission users: %w", err)
		}
		users, err := d.users.fetch(tx, links[p.ID])
		if err != nil {
			return err
		}
		p.Users = pick(users, links[p.ID])
	}
	if d.groups != nil {
		links, err := d.groupLinks.lefts(tx, []uint{p.ID})
		if err != nil {
			return fmt.Errorf("failed to load permission groups: %w", err)
		}
		groups, err := d.groups.fetch(tx, links[p.ID])
		if err != nil {
			return err
		}
		p.Groups = pick(groups, links[p.ID])
	}
	return nil
}

// PermissionQuery runs permission lookups through the host's database handle
type PermissionQuery struct {
	def *PermissionDef
	db  *gorm.DB
}

// Query returns the lookups of this directory bound to db
func (d *PermissionDef) Query(db *gorm.DB) *PermissionQuery {
	return &PermissionQuery{def: d, db: db}
}

// FindByName returns the permission with exactly this name, with its users
// and groups, or nil when there is none
func (q *PermissionQuery) FindByName(ctx context.Context, name string) (*humans.Permission, error) {
	tx := q.db.WithContext(ctx)
	var model PermissionModel
	if err := tx.Table(q.def.table).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	p := model.ToPermission()
	if err := q.def.hydrate(tx, p); err != nil {
		return nil, err
	}
	return p, nil
}
