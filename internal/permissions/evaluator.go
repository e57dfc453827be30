package permissions

import (
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
)

// Mode selects how a multi-permission requirement combines its names.
type Mode string

const (
	// ModeAll requires every named permission.
	ModeAll Mode = "all"
	// ModeAny requires at least one of the named permissions.
	ModeAny Mode = "any"
)

// Requirement names the permissions an operation demands.
type Requirement struct {
	Names []enums.Permission
	Mode  Mode
}

// RequireAll builds an all-of requirement.
func RequireAll(names ...enums.Permission) Requirement {
	return Requirement{Names: names, Mode: ModeAll}
}

// RequireAny builds an any-of requirement.
func RequireAny(names ...enums.Permission) Requirement {
	return Requirement{Names: names, Mode: ModeAny}
}

// Set is a resolved permission set. Guests carry an empty set.
type Set map[enums.Permission]struct{}

// NewSet builds a Set from permission names.
func NewSet(names ...enums.Permission) Set {
	set := make(Set, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the named permission.
func (s Set) Has(name enums.Permission) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members. Order is unspecified.
func (s Set) Names() []enums.Permission {
	names := make([]enums.Permission, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Decision is the outcome of evaluating a requirement against a set.
// On DENY, Missing lists the permissions that would have satisfied the
// requirement: all absent names under ModeAll, every alternative under
// ModeAny.
type Decision struct {
	Allowed bool
	Missing []enums.Permission
}

// Evaluate checks the requirement against the resolved set. A set holding
// the full-access permission always allows. An empty requirement allows.
func Evaluate(set Set, req Requirement) Decision {
	if len(req.Names) == 0 {
		return Decision{Allowed: true}
	}
	if set.Has(enums.PermissionFullAccess) {
		return Decision{Allowed: true}
	}

	switch req.Mode {
	case ModeAny:
		for _, name := range req.Names {
			if set.Has(name) {
				return Decision{Allowed: true}
			}
		}
		missing := make([]enums.Permission, len(req.Names))
		copy(missing, req.Names)
		return Decision{Allowed: false, Missing: missing}
	default:
		var missing []enums.Permission
		for _, name := range req.Names {
			if !set.Has(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return Decision{Allowed: false, Missing: missing}
		}
		return Decision{Allowed: true}
	}
}

// Require evaluates the requirement and converts a DENY into a forbidden
// error carrying the missing permission names.
func Require(set Set, req Requirement) error {
	decision := Evaluate(set, req)
	if decision.Allowed {
		return nil
	}
	missing := make([]string, 0, len(decision.Missing))
	for _, name := range decision.Missing {
		missing = append(missing, name.String())
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "missing required permissions").
		WithDetails(map[string]any{"missing_permissions": missing})
}
