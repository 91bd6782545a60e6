// Package access decides whether a caller may see or change a catalog record.
package access

// Principal identifies the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
}

// Owned is implemented by every record that belongs to a single user.
type Owned interface {
	OwnerID() int64
}

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool { return d == Allow }

// Authorize grants access only to the record's owner. A zero principal is always denied.
func Authorize(p Principal, record Owned) Decision {
	if p.UserID == 0 {
		return Deny
	}
	if record.OwnerID() != p.UserID {
		return Deny
	}
	return Allow
}

// Filter returns the records the principal may see, preserving order.
func Filter[T Owned](p Principal, records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if Authorize(p, r).Allowed() {
			out = append(out, r)
		}
	}
	return out
}
