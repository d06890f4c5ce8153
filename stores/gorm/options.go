//go:build !wasm
// +build !wasm

package gorm

import "gorm.io/gorm"

type options struct {
	table   string
	schemes []string
	scopes  []func(*gorm.DB) *gorm.DB
	users   *UserDef
	groups  *GroupDef
}

// Option configures a directory builder. Each builder reads only the options
// it documents.
type Option func(*options)

// WithTableName overrides the default table name for any builder
func WithTableName(name string) Option {
	return func(o *options) { o.table = name }
}

// WithCryptSchemes sets the ordered hashing schemes of UserDirectory. The
// first hashes new passwords; all are accepted when verifying.
func WithCryptSchemes(schemes ...string) Option {
	return func(o *options) { o.schemes = schemes }
}

// WithQueryScopes adds GORM scopes to every user lookup of UserDirectory,
// for hosts that need extra filters, preloads or ordering
func WithQueryScopes(scopes ...func(*gorm.DB) *gorm.DB) Option {
	return func(o *options) { o.scopes = append(o.scopes, scopes...) }
}

// WithUsers links PermissionDirectory to users
func WithUsers(users *UserDef) Option {
	return func(o *options) { o.users = users }
}

// WithGroups links PermissionDirectory to groups
func WithGroups(groups *GroupDef) Option {
	return func(o *options) { o.groups = groups }
}

func buildOptions(defaultTable string, opts []Option) *options {
	o := &options{table: defaultTable}
	for _, opt := range opts {
		opt(o)
	}
	if o.table == "" {
		o.table = defaultTable
	}
	return o
}
