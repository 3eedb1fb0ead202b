package workflow

// Status is a plan's lifecycle status. Values are stable wire codes.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusApprovedByAgency Status = "approved_by_agency"
	StatusUnderDNPMReview  Status = "under_dnpm_review"
	StatusApprovedByDNPM   Status = "approved_by_dnpm"
	StatusReturned         Status = "returned"
	StatusLocked           Status = "locked"
)

// ParseStatus validates a wire status code.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApprovedByAgency,
		StatusUnderDNPMReview, StatusApprovedByDNPM, StatusReturned, StatusLocked:
		return Status(s), true
	}
	return "", false
}

// Role is an actor's role. Values are stable wire codes.
type Role string

const (
	RoleAgencyUser     Role = "agency_user"
	RoleAgencyApprover Role = "agency_approver"
	RoleDNPMReviewer   Role = "dnpm_reviewer"
	RoleDNPMApprover   Role = "dnpm_approver"
	RoleSystemAdmin    Role = "system_admin"
)

// ParseRole validates a wire role code.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAgencyUser, RoleAgencyApprover, RoleDNPMReviewer,
		RoleDNPMApprover, RoleSystemAdmin:
		return Role(s), true
	}
	return "", false
}

// ItemsMutable reports whether plan items may be added, edited, deleted or
// imported while the plan is in status s.
func ItemsMutable(s Status) bool {
	return s == StatusDraft || s == StatusReturned
}

// StampsSubmittedAt reports whether entering the target status sets the
// plan's submitted_at timestamp. It is overwritten on every entry, including
// resubmission; the workflow history preserves earlier submissions.
func StampsSubmittedAt(target Status) bool {
	return target == StatusSubmitted
}

// StampsApprovedAt reports whether entering the target status sets the
// plan's approved_at timestamp.
func StampsApprovedAt(target Status) bool {
	return target == StatusApprovedByDNPM
}
