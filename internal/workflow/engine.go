// Package workflow implements the role-gated state machine that governs a
// procurement plan's lifecycle. Legality of a transition is a pure function
// of (current status, actor role, whether the actor's agency owns the plan,
// target status); this package is the single authority consulted by both the
// service layer and anything rendering available actions.
package workflow

import (
	"strings"

	"github.com/png-egov/procurement-plans/internal/apperr"
)

// rule is one row of the permission table.
type rule struct {
	from            Status
	to              Status
	roles           []Role
	ownerOnly       bool // actor's agency must own the plan
	commentRequired bool
}

var agencyRoles = []Role{RoleAgencyUser, RoleAgencyApprover}
var dnpmRoles = []Role{RoleDNPMReviewer, RoleDNPMApprover, RoleSystemAdmin}

// permissionTable is the complete set of legal transitions. Anything not
// listed here is illegal regardless of role.
var permissionTable = []rule{
	{from: StatusDraft, to: StatusSubmitted, roles: agencyRoles, ownerOnly: true},
	{from: StatusSubmitted, to: StatusApprovedByAgency, roles: []Role{RoleAgencyApprover}, ownerOnly: true},
	{from: StatusSubmitted, to: StatusDraft, roles: []Role{RoleAgencyApprover}, ownerOnly: true, commentRequired: true},
	{from: StatusApprovedByAgency, to: StatusUnderDNPMReview, roles: dnpmRoles},
	{from: StatusUnderDNPMReview, to: StatusApprovedByDNPM, roles: dnpmRoles},
	{from: StatusUnderDNPMReview, to: StatusReturned, roles: dnpmRoles, commentRequired: true},
	{from: StatusApprovedByDNPM, to: StatusLocked, roles: []Role{RoleSystemAdmin}},
	{from: StatusLocked, to: StatusApprovedByDNPM, roles: []Role{RoleSystemAdmin}, commentRequired: true},
	{from: StatusReturned, to: StatusSubmitted, roles: agencyRoles, ownerOnly: true},
}

// Transition describes one legal move offered to an actor.
type Transition struct {
	From            Status `json:"from"`
	To              Status `json:"to"`
	CommentRequired bool   `json:"comment_required"`
}

// LegalTransitions returns every transition the actor may request from the
// current status.
func LegalTransitions(current Status, role Role, ownsPlan bool) []Transition {
	var out []Transition
	for _, r := range permissionTable {
		if r.from != current {
			continue
		}
		if !roleAllowed(r.roles, role) {
			continue
		}
		if r.ownerOnly && !ownsPlan {
			continue
		}
		out = append(out, Transition{From: r.from, To: r.to, CommentRequired: r.commentRequired})
	}
	return out
}

// Authorize validates a requested transition against the permission table.
// It returns nil when the transition is legal for this actor and the comment
// requirement is satisfied. Rejections name the specific missing
// precondition. Authorize performs no mutation.
func Authorize(current Status, role Role, ownsPlan bool, target Status, comments string) error {
	r, ok := findRule(current, target)
	if !ok {
		return apperr.Newf(apperr.ErrCodeIllegalTransition,
			"no transition from '%s' to '%s'", current, target)
	}
	if !roleAllowed(r.roles, role) {
		return apperr.Newf(apperr.ErrCodeIllegalTransition,
			"role '%s' may not transition a plan from '%s' to '%s'", role, current, target)
	}
	if r.ownerOnly && !ownsPlan {
		return apperr.Newf(apperr.ErrCodeIllegalTransition,
			"only the plan's owning agency may transition it from '%s' to '%s'", current, target)
	}
	if r.commentRequired && strings.TrimSpace(comments) == "" {
		return apperr.Newf(apperr.ErrCodeMissingComment,
			"a comment is required when transitioning from '%s' to '%s'", current, target)
	}
	return nil
}

func findRule(from, to Status) (rule, bool) {
	for _, r := range permissionTable {
		if r.from == from && r.to == to {
			return r, true
		}
	}
	return rule{}, false
}

func roleAllowed(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
