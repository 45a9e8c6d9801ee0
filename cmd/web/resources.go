// cmd/web/resources.go
//
// Config-driven resource registration.
//
// Each `resources[]` entry becomes one model.Model (memory- or SQL-backed)
// and one Engine.Register call.  The configure callback copies only the
// overrides the entry actually sets, so omitted keys keep engine defaults.

package main

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/nutshell/internal/config"
	"github.com/yanizio/nutshell/internal/model"
	"github.com/yanizio/nutshell/internal/resource"
	"github.com/yanizio/nutshell/internal/store/memory"
	"github.com/yanizio/nutshell/internal/store/sqlstore"
)

// buildModel picks the store for rc.  db may be nil when no entry is SQL.
func buildModel(rc config.Resource, db *sqlx.DB) (model.Model, error) {
	switch rc.StoreKind() {
	case config.StoreSQL:
		if db == nil {
			return nil, fmt.Errorf("resource %s: sql store without a database", rc.Model)
		}
		return sqlstore.New(db, rc.Model, tableFor(rc), rc.Key), nil
	case config.StoreMemory:
		return memory.New(rc.Model), nil
	default:
		return nil, fmt.Errorf("resource %s: unknown store %q", rc.Model, rc.Store)
	}
}

// tableFor defaults the table to the resource's plural path name.
func tableFor(rc config.Resource) string {
	switch {
	case rc.Table != "":
		return rc.Table
	case rc.Plural != "":
		return rc.Plural
	case rc.Singular != "":
		return resource.Pluralize(rc.Singular)
	}
	return resource.Pluralize(strings.ToLower(rc.Model))
}

// configureFrom turns an entry's overrides into a configure callback.
func configureFrom(rc config.Resource) func(*resource.Descriptor) {
	return func(d *resource.Descriptor) {
		if rc.Singular != "" {
			d.Singular = rc.Singular
			d.Plural = resource.Pluralize(rc.Singular)
		}
		if rc.Plural != "" {
			d.Plural = rc.Plural
		}
		if rc.Prefix != nil {
			d.Prefix = *rc.Prefix
		}
		setFlag(&d.AllowList, rc.AllowList)
		setFlag(&d.AllowCreate, rc.AllowCreate)
		setFlag(&d.AllowUpdate, rc.AllowUpdate)
		setFlag(&d.AllowDelete, rc.AllowDelete)
		if len(rc.Fields) > 0 {
			d.Fields = rc.Fields
		}
	}
}

func setFlag(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// registerAll builds and registers every configured resource.
func registerAll(eng *resource.Engine, entries []config.Resource, db *sqlx.DB) error {
	for _, rc := range entries {
		m, err := buildModel(rc, db)
		if err != nil {
			return err
		}
		eng.Register(m, configureFrom(rc))
	}
	return nil
}
