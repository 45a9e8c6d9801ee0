// internal/config/model.go
//
// Typed configuration model for nutshell.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `NUTSHELL_`-prefixed environment overrides – highest precedence.
//
// A `database.password` of the form `vault:<mount>/<path>#<key>` is left
// as-is here; cmd/web resolves it through internal/vault before opening
// the pool.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Allow flags are *bool so “absent” (nil) keeps the engine default of
//     true while an explicit `false` disables the verb.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// Log section
//

// Log holds logger tunables.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`

	// GeoDB is an optional GeoLite2 database used to tag access logs with a
	// country code.
	GeoDB string `koanf:"geo_db" validate:"omitempty,file"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) may carry one `%s` verb where the password goes.
// The *secret* (`Password`) is either a literal or a `vault:` reference,
// keeping credentials out of flat files and git history.
type Database struct {
	Driver   string `koanf:"driver"   validate:"omitempty,oneof=mysql sqlite3"`
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password"`
}

//
// Resources section
//

// Store kinds a resource may be backed by.
const (
	StoreSQL    = "sql"
	StoreMemory = "memory"
)

// Resource describes one model to expose.  Empty strings and nil flags keep
// the engine defaults.
type Resource struct {
	Model string `koanf:"model" validate:"required,alphanum"`
	Store string `koanf:"store" validate:"omitempty,oneof=sql memory"`
	Table string `koanf:"table"`
	Key   string `koanf:"key"`

	Singular string  `koanf:"singular"`
	Plural   string  `koanf:"plural"`
	Prefix   *string `koanf:"prefix"`

	AllowList   *bool `koanf:"allow_list"`
	AllowCreate *bool `koanf:"allow_create"`
	AllowUpdate *bool `koanf:"allow_update"`
	AllowDelete *bool `koanf:"allow_delete"`

	Fields []string `koanf:"fields" validate:"dive,required"`
}

// StoreKind returns the configured store, defaulting to memory.
func (r Resource) StoreKind() string {
	if r.Store == "" {
		return StoreMemory
	}
	return r.Store
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // NUTSHELL_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Log       Log        `koanf:"log"`
	HTTP      HTTP       `koanf:"http"`
	Database  Database   `koanf:"database"`
	Resources []Resource `koanf:"resources" validate:"dive"`
	Paths     Paths      `koanf:"-"`
}

// NeedsDatabase reports whether any resource is SQL-backed.
func (c *Config) NeedsDatabase() bool {
	for _, r := range c.Resources {
		if r.StoreKind() == StoreSQL {
			return true
		}
	}
	return false
}
