//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	"github.com/panyam/humans"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:80;uniqueIndex;not null"`
	EmailAddress *string   `gorm:"size:80;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	IsActive     bool      `gorm:"not null;default:false"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime;not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (m *UserModel) ToUser(crypt *humans.CryptContext) *humans.User {
	u := &humans.User{
		ID:           m.ID,
		Username:     m.Username,
		EmailAddress: m.EmailAddress,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	u.SetCryptContext(crypt)
	return u
}

func UserToModel(u *humans.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		EmailAddress: u.EmailAddress,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// GroupModel is the GORM model for groups
type GroupModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:80;uniqueIndex"`
}

func (m *GroupModel) ToGroup() *humans.Group {
	return &humans.Group{ID: m.ID, Name: m.Name}
}

func GroupToModel(g *humans.Group) *GroupModel {
	return &GroupModel{ID: g.ID, Name: g.Name}
}

// PermissionModel is the GORM model for permissions
type PermissionModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:80;uniqueIndex"`
}

func (m *PermissionModel) ToPermission() *humans.Permission {
	return &humans.Permission{ID: m.ID, Name: m.Name}
}

func PermissionToModel(p *humans.Permission) *PermissionModel {
	return &PermissionModel{ID: p.ID, Name: p.Name}
}

// UserGroupLink is a row of the user/group join table. Base.Migrate
// creates link tables with foreign keys to both sides.
type UserGroupLink struct {
	UserID  uint `gorm:"primaryKey;autoIncrement:false;not null"`
	GroupID uint `gorm:"primaryKey;autoIncrement:false;not null;index"`
}

// UserPermissionLink is a row of the user/permission join table
type UserPermissionLink struct {
	UserID       uint `gorm:"primaryKey;autoIncrement:false;not null"`
	PermissionID uint `gorm:"primaryKey;autoIncrement:false;not null;index"`
}

// GroupPermissionLink is a row of the group/permission join table
type GroupPermissionLink struct {
	GroupID      uint `gorm:"primaryKey;autoIncrement:false;not null"`
	PermissionID uint `gorm:"primaryKey;autoIncrement:false;not null;index"`
}
