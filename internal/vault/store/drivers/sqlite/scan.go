package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

// dbTime scans DATETIME columns whether the driver hands back a parsed
// time.Time or the raw stored text (RETURNING clauses carry no decltype).
type dbTime struct{ time.Time }

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (d *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		d.Time = x.UTC()
		return nil
	case string:
		return d.parse(x)
	case []byte:
		return d.parse(string(x))
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("sqlite: cannot scan %T into time", v)
	}
}

func (d *dbTime) parse(s string) error {
	// Drop a monotonic clock suffix if one was ever persisted.
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("sqlite: unrecognised time %q", s)
}

func joinPermissions(perms []domain.SharePermission) string {
	parts := make([]string, 0, len(perms))
	for _, p := range perms {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, " ")
}

func splitPermissions(s string) []domain.SharePermission {
	fields := strings.Fields(s)
	out := make([]domain.SharePermission, 0, len(fields))
	for _, f := range fields {
		out = append(out, domain.SharePermission(f))
	}
	return out
}
