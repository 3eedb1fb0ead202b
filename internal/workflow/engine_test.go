package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/png-egov/procurement-plans/internal/apperr"
)

func TestAuthorize_PermissionTable(t *testing.T) {
	tests := []struct {
		name     string
		current  Status
		role     Role
		owns     bool
		target   Status
		comments string
		wantCode string // empty = allowed
	}{
		{"agency user submits own draft", StatusDraft, RoleAgencyUser, true, StatusSubmitted, "", ""},
		{"agency approver submits own draft", StatusDraft, RoleAgencyApprover, true, StatusSubmitted, "", ""},
		{"agency user cannot submit foreign draft", StatusDraft, RoleAgencyUser, false, StatusSubmitted, "", apperr.ErrCodeIllegalTransition},
		{"dnpm reviewer cannot submit draft", StatusDraft, RoleDNPMReviewer, true, StatusSubmitted, "", apperr.ErrCodeIllegalTransition},

		{"approver approves submitted without comment", StatusSubmitted, RoleAgencyApprover, true, StatusApprovedByAgency, "", ""},
		{"agency user cannot approve submitted", StatusSubmitted, RoleAgencyUser, true, StatusApprovedByAgency, "", apperr.ErrCodeIllegalTransition},
		{"return to draft requires comment", StatusSubmitted, RoleAgencyApprover, true, StatusDraft, "", apperr.ErrCodeMissingComment},
		{"return to draft with comment", StatusSubmitted, RoleAgencyApprover, true, StatusDraft, "missing quotes", ""},
		{"blank comment does not satisfy requirement", StatusSubmitted, RoleAgencyApprover, true, StatusDraft, "   ", apperr.ErrCodeMissingComment},

		{"dnpm reviewer starts review", StatusApprovedByAgency, RoleDNPMReviewer, false, StatusUnderDNPMReview, "", ""},
		{"system admin starts review", StatusApprovedByAgency, RoleSystemAdmin, false, StatusUnderDNPMReview, "", ""},
		{"agency approver cannot start review", StatusApprovedByAgency, RoleAgencyApprover, true, StatusUnderDNPMReview, "", apperr.ErrCodeIllegalTransition},

		{"dnpm approver approves review", StatusUnderDNPMReview, RoleDNPMApprover, false, StatusApprovedByDNPM, "", ""},
		{"dnpm return requires comment", StatusUnderDNPMReview, RoleDNPMReviewer, false, StatusReturned, "", apperr.ErrCodeMissingComment},
		{"dnpm return with comment", StatusUnderDNPMReview, RoleDNPMReviewer, false, StatusReturned, "budget ceiling exceeded", ""},

		{"admin locks approved plan", StatusApprovedByDNPM, RoleSystemAdmin, false, StatusLocked, "", ""},
		{"dnpm approver cannot lock", StatusApprovedByDNPM, RoleDNPMApprover, false, StatusLocked, "", apperr.ErrCodeIllegalTransition},
		{"unlock requires comment", StatusLocked, RoleSystemAdmin, false, StatusApprovedByDNPM, "", apperr.ErrCodeMissingComment},
		{"admin unlocks with comment", StatusLocked, RoleSystemAdmin, false, StatusApprovedByDNPM, "correction requested", ""},

		{"owner resubmits returned plan", StatusReturned, RoleAgencyUser, true, StatusSubmitted, "", ""},
		{"non-owner cannot resubmit", StatusReturned, RoleAgencyApprover, false, StatusSubmitted, "", apperr.ErrCodeIllegalTransition},

		{"no rule draft to locked", StatusDraft, RoleSystemAdmin, true, StatusLocked, "", apperr.ErrCodeIllegalTransition},
		{"no rule beyond locked", StatusLocked, RoleSystemAdmin, true, StatusSubmitted, "", apperr.ErrCodeIllegalTransition},
		{"no rule draft to draft", StatusDraft, RoleAgencyUser, true, StatusDraft, "", apperr.ErrCodeIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.current, tt.role, tt.owns, tt.target, tt.comments)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperr.Code(err))
			}
		})
	}
}

func TestAuthorize_CommentCheckedAfterLegality(t *testing.T) {
	// An illegal transition reports IllegalTransition even when comments
	// are also missing: legality is decided first.
	err := Authorize(StatusDraft, RoleDNPMReviewer, false, StatusReturned, "")
	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeIllegalTransition, apperr.Code(err))
}

func TestLegalTransitions(t *testing.T) {
	// Owning agency approver on a submitted plan: approve or return.
	got := LegalTransitions(StatusSubmitted, RoleAgencyApprover, true)
	require.Len(t, got, 2)
	assert.Equal(t, StatusApprovedByAgency, got[0].To)
	assert.Equal(t, StatusDraft, got[1].To)
	assert.False(t, got[0].CommentRequired)
	assert.True(t, got[1].CommentRequired)

	// Same role without ownership has nothing.
	assert.Empty(t, LegalTransitions(StatusSubmitted, RoleAgencyApprover, false))

	// Agency user on a submitted plan has nothing.
	assert.Empty(t, LegalTransitions(StatusSubmitted, RoleAgencyUser, true))

	// Admin on a locked plan can only unlock, with comment.
	got = LegalTransitions(StatusLocked, RoleSystemAdmin, false)
	require.Len(t, got, 1)
	assert.Equal(t, StatusApprovedByDNPM, got[0].To)
	assert.True(t, got[0].CommentRequired)
}

func TestParseStatusAndRole(t *testing.T) {
	for _, s := range []string{"draft", "submitted", "approved_by_agency", "under_dnpm_review", "approved_by_dnpm", "returned", "locked"} {
		_, ok := ParseStatus(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseStatus("archived")
	assert.False(t, ok)

	for _, r := range []string{"agency_user", "agency_approver", "dnpm_reviewer", "dnpm_approver", "system_admin"} {
		_, ok := ParseRole(r)
		assert.True(t, ok, r)
	}
	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestItemsMutable(t *testing.T) {
	assert.True(t, ItemsMutable(StatusDraft))
	assert.True(t, ItemsMutable(StatusReturned))
	for _, s := range []Status{StatusSubmitted, StatusApprovedByAgency, StatusUnderDNPMReview, StatusApprovedByDNPM, StatusLocked} {
		assert.False(t, ItemsMutable(s), string(s))
	}
}

func TestTimestampStamping(t *testing.T) {
	assert.True(t, StampsSubmittedAt(StatusSubmitted))
	assert.False(t, StampsSubmittedAt(StatusApprovedByDNPM))
	assert.True(t, StampsApprovedAt(StatusApprovedByDNPM))
	assert.False(t, StampsApprovedAt(StatusLocked))
}
