// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load()` calls `validateStruct` right after it unmarshals the merged Koanf
// tree.  Any failure aborts startup, so the binary never runs with partial
// or malformed configuration.
//
// Besides the field tags in model.go, one struct-level rule is registered:
// when any resource uses the `sql` store, `database.dsn` is required, and
// two resources may not claim the same model name.

package config

import (
	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(configRules, Config{})
	return val
}

// configRules holds cross-section checks the tags cannot express.
func configRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)

	if c.NeedsDatabase() && c.Database.DSN == "" {
		sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_for_sql", "")
	}

	seen := make(map[string]struct{}, len(c.Resources))
	for _, r := range c.Resources {
		if _, dup := seen[r.Model]; dup {
			sl.ReportError(r.Model, "Resources.Model", "Model", "unique", r.Model)
		}
		seen[r.Model] = struct{}{}
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
