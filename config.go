package humans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: HUMANS_USER_TABLE, HUMANS_CRYPT_SCHEMES, ...
const EnvPrefix = "HUMANS"

// Config describes which entities to build and how to store them
type Config struct {
	UserTable         string   `mapstructure:"user_table" yaml:"user_table" validate:"required,max=64"`
	GroupTable        string   `mapstructure:"group_table" yaml:"group_table" validate:"required_if=EnableGroups true,max=64"`
	PermissionTable   string   `mapstructure:"permission_table" yaml:"permission_table" validate:"required_if=EnablePermissions true,max=64"`
	CryptSchemes      []string `mapstructure:"crypt_schemes" yaml:"crypt_schemes" validate:"min=1,dive,required"`
	EnableGroups      bool     `mapstructure:"enable_groups" yaml:"enable_groups"`
	EnablePermissions bool     `mapstructure:"enable_permissions" yaml:"enable_permissions"`

	// GroupPermissions links groups to permissions when both are enabled
	GroupPermissions bool `mapstructure:"group_permissions" yaml:"group_permissions"`
}

// DefaultConfig builds users, groups and permissions with their default
// table names and bcrypt hashing
func DefaultConfig() *Config {
	return &Config{
		UserTable:         DefaultUserTable,
		GroupTable:        DefaultGroupTable,
		PermissionTable:   DefaultPermissionTable,
		CryptSchemes:      []string{SchemeBcrypt},
		EnableGroups:      true,
		EnablePermissions: true,
		GroupPermissions:  true,
	}
}

var configValidator = validator.New()

// Validate checks field constraints and that every crypt scheme is registered
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, name := range c.CryptSchemes {
		if _, ok := LookupScheme(name); !ok {
			return fmt.Errorf("invalid config: %w: %q", ErrUnknownScheme, name)
		}
	}
	return nil
}

// CryptContext builds the crypt context named by CryptSchemes
func (c *Config) CryptContext() (*CryptContext, error) {
	return NewCryptContext(c.CryptSchemes...)
}

// LoadConfig reads configuration from an optional YAML file at path, then
// applies HUMANS_* environment overrides over DefaultConfig. Crypt schemes
// from the environment are comma separated.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("user_table", def.UserTable)
	v.SetDefault("group_table", def.GroupTable)
	v.SetDefault("permission_table", def.PermissionTable)
	v.SetDefault("crypt_schemes", def.CryptSchemes)
	v.SetDefault("enable_groups", def.EnableGroups)
	v.SetDefault("enable_permissions", def.EnablePermissions)
	v.SetDefault("group_permissions", def.GroupPermissions)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CryptSchemes = splitSchemes(strings.Join(cfg.CryptSchemes, ","))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitSchemes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
