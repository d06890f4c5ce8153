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

// GroupDef is the group entity definition produced by GroupDirectory
type GroupDef struct {
	base    *Base
	table   string
	users   *UserDef
	members relation

	permissions *PermissionDef
}

// GroupDirectory registers the group table and its membership join table on
// base, and gives users the membership capability.
// Options: WithTableName.
func GroupDirectory(base *Base, users *UserDef, opts ...Option) (*GroupDef, error) {
	if base == nil {
		return nil, humans.ErrNilBase
	}
	if users == nil {
		return nil, humans.ErrMissingUserDirectory
	}
	if users.base != base {
		return nil, humans.ErrBaseMismatch
	}
	if users.groups != nil {
		return nil, fmt.Errorf("%w: users already have groups", humans.ErrAlreadyLinked)
	}
	o := buildOptions(humans.DefaultGroupTable, opts)
	d := &GroupDef{
		base:  base,
		table: o.table,
		users: users,
		members: relation{
			table:    humans.JoinTableName(users.table, o.table),
			leftCol:  "user_id",
			rightCol: "group_id",
			model:    func() any { return &UserGroupLink{} },
		},
	}
	if err := base.register(d.table, &GroupModel{}); err != nil {
		return nil, err
	}
	if err := base.register(d.members.table, &UserGroupLink{},
		reference{column: "user_id", table: users.table},
		reference{column: "group_id", table: d.table}); err != nil {
		return nil, err
	}
	users.groups = d
	return d, nil
}

// TableName is the storage name of groups
func (d *GroupDef) TableName() string { return d.table }

// MembershipTable is the storage name of the user/group join table
func (d *GroupDef) MembershipTable() string { return d.members.table }

// Users is the user directory this group directory was built with
func (d *GroupDef) Users() *UserDef { return d.users }

// New builds an unsaved group with no members
func (d *GroupDef) New(name string) *humans.Group {
	g := humans.NewGroup(name)
	g.Members = []*humans.User{}
	if d.permissions != nil {
		g.Permissions = []*humans.Permission{}
	}
	return g
}

func (d *GroupDef) insertRow(tx *gorm.DB, g *humans.Group) error {
	if g.Name == "" {
		return humans.ErrNameRequired
	}
	model := GroupToModel(g)
	if err := tx.Table(d.table).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	g.ID = model.ID
	return nil
}

// Create inserts a new group and its links
func (d *GroupDef) Create(ctx context.Context, db *gorm.DB, g *humans.Group) error {
	if g.ID != 0 {
		return fmt.Errorf("group %s already has id %d", g.Name, g.ID)
	}
	return d.Save(ctx, db, g)
}

// Save inserts or updates g. A non-nil Members replaces the stored members,
// inserting members that were never saved; likewise Permissions when groups
// are linked to permissions. Nil collections are left untouched.
func (d *GroupDef) Save(ctx context.Context, db *gorm.DB, g *humans.Group) error {
	if g.Name == "" {
		return humans.ErrNameRequired
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if g.ID == 0 {
			if err := d.insertRow(tx, g); err != nil {
				return err
			}
		} else if err := tx.Table(d.table).Save(GroupToModel(g)).Error; err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}

		if g.Members != nil {
			ids := make([]uint, 0, len(g.Members))
			for _, u := range g.Members {
				if u.ID == 0 {
					if err := d.users.insertRow(tx, u); err != nil {
						return err
					}
				}
				ids = append(ids, u.ID)
			}
			if err := d.members.replaceLefts(tx, g.ID, uniqueIDs(ids)); err != nil {
				return fmt.Errorf("failed to save group members: %w", err)
			}
		}

		if g.Permissions != nil && d.permissions != nil {
			ids := make([]uint, 0, len(g.Permissions))
			for _, p := range g.Permissions {
				if p.ID == 0 {
					if err := d.permissions.insertRow(tx, p); err != nil {
						return err
					}
				}
				ids = append(ids, p.ID)
			}
			if err := d.permissions.groupLinks.replaceRights(tx, g.ID, uniqueIDs(ids)); err != nil {
				return fmt.Errorf("failed to save group permissions: %w", err)
			}
		}
		return nil
	})
}

// AddMember links a saved user to a saved group
func (d *GroupDef) AddMember(ctx context.Context, db *gorm.DB, g *humans.Group, u *humans.User) error {
	if g.ID == 0 || u.ID == 0 {
		return fmt.Errorf("group and user must be saved before linking")
	}
	if err := d.members.link(db.WithContext(ctx), u.ID, g.ID); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	g.AddMember(u)
	return nil
}

// fetch loads groups by id without their relations
func (d *GroupDef) fetch(tx *gorm.DB, ids []uint) (map[uint]*humans.Group, error) {
	models, err := findByIDs[GroupModel](tx, d.table, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	out := make(map[uint]*humans.Group, len(models))
	for i := range models {
		out[models[i].ID] = models[i].ToGroup()
	}
	return out, nil
}

// hydrate loads members, with their own relations, and permissions
func (d *GroupDef) hydrate(tx *gorm.DB, g *humans.Group) error {
	links, err := d.members.lefts(tx, []uint{g.ID})
	if err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}
	users, err := d.users.fetch(tx, links[g.ID])
	if err != nil {
		return err
	}
	g.Members = pick(users, links[g.ID])

	if d.permissions != nil {
		links, err := d.permissions.groupLinks.rights(tx, []uint{g.ID})
		if err != nil {
			return fmt.Errorf("failed to load group permissions: %w", err)
		}
		perms, err := d.permissions.fetch(tx, links[g.ID])
		if err != nil {
			return err
		}
		g.Permissions = pick(perms, links[g.ID])
	}
	return nil
}

// GroupQuery runs group lookups through the host's database handle
type GroupQuery struct {
	def *GroupDef
	db  *gorm.DB
}

// Query returns the lookups of this directory bound to db
func (d *GroupDef) Query(db *gorm.DB) *GroupQuery {
	return &GroupQuery{def: d, db: db}
}

// FindByName returns the group with exactly this name, with its members,
// or nil when there is none
func (q *GroupQuery) FindByName(ctx context.Context, name string) (*humans.Group, error) {
	tx := q.db.WithContext(ctx)
	var model GroupModel
	if err := tx.Table(q.def.table).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	g := model.ToGroup()
	if err := q.def.hydrate(tx, g); err != nil {
		return nil, err
	}
	return g, nil
}
