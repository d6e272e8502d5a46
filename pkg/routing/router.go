// Package routing decides which surface an identity may land on.
// It is pure: no I/O, no navigation, only a redirect decision.
package routing

import (
	"strings"

	"ai-docchat-be/pkg/identity"
)

const (
	PathRoot       = "/"
	PathLogin      = "/login"
	PathChat       = "/chat"
	PathAdmin      = "/admin"
	PathSuperAdmin = "/super-admin"
)

// Decision is the outcome of routing a profile against a requested path.
// Target is meaningful only when Redirect is true.
type Decision struct {
	Redirect bool   `json:"redirect"`
	Target   string `json:"target,omitempty"`
}

func stay() Decision {
	return Decision{Redirect: false}
}

func redirect(target string) Decision {
	return Decision{Redirect: true, Target: target}
}

// Landing returns the canonical landing path for a resolved profile.
func Landing(profile *identity.Profile) string {
	switch {
	case profile == nil:
		return PathLogin
	case profile.IsSuperAdmin:
		return PathSuperAdmin
	case profile.Role == identity.RoleAdmin:
		return PathAdmin
	default:
		return PathChat
	}
}

// Route maps a resolved profile (or nil) and a requested path to a redirect
// decision. It is called both on initial page entry and as a request-time
// guard on role-restricted prefixes, so a stale client route can never render
// restricted content.
//
// Non-admins are hard-denied from /admin and /super-admin prefixes. Admins on
// /chat are softly redirected to /admin (canonical surface, not a denial).
func Route(profile *identity.Profile, requestedPath string) Decision {
	path := normalize(requestedPath)

	if profile == nil {
		if path == PathLogin {
			return stay()
		}
		return redirect(PathLogin)
	}

	landing := Landing(profile)

	// A signed-in user has no business on /login or the root entry point.
	if path == PathLogin || path == PathRoot {
		return redirect(landing)
	}

	if hasPrefix(path, PathSuperAdmin) && !profile.IsSuperAdmin {
		return redirect(landing)
	}

	if hasPrefix(path, PathAdmin) && profile.Role != identity.RoleAdmin && !profile.IsSuperAdmin {
		// Hard deny: non-admins never reach an admin-prefixed path.
		return redirect(PathChat)
	}

	if hasPrefix(path, PathChat) && profile.Role == identity.RoleAdmin && !profile.IsSuperAdmin {
		// Soft preference: the canonical admin surface is /admin.
		return redirect(PathAdmin)
	}

	return stay()
}

func normalize(path string) string {
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// hasPrefix matches whole path segments: /admin and /admin/documents match
// the /admin prefix, /administrator does not.
func hasPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
