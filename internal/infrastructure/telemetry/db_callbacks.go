package telemetry

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// gormRegister is satisfied by the callback builders returned from
// db.Callback().<Op>().Before/After
type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// gormHooks installs a before and an after hook on every GORM operation.
// The after hook receives the SQL verb of the statement. After hooks run in
// registration order, so hooks installed ahead of otelgorm still see its span.
func gormHooks(db *gorm.DB, prefix string, before func(*gorm.DB), after func(*gorm.DB, string)) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		verb   string
		before gormRegister
		after  gormRegister
	}{
		{"create", "INSERT", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"select", "SELECT", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", "UPDATE", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", "", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", "", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for _, h := range hooks {
		verb := h.verb
		if err := h.before.Register(prefix+":before_"+h.op, before); err != nil {
			return err
		}
		if err := h.after.Register(prefix+":after_"+h.op, func(db *gorm.DB) {
			op := verb
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			after(db, op)
		}); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType reads the SQL verb of a raw statement
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}

type queryStartKey struct{ name string }

// markStart returns a before hook that stores the start time under key
func markStart(key queryStartKey) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

// elapsedSince reads the start time stored by markStart
func elapsedSince(db *gorm.DB, key queryStartKey) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
