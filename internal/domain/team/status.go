package team

// Status is the registration lifecycle state of a team.
//
//	draft -> pending -> approved | rejected
//	approved <-> rejected (admin review is reversible)
//
// Any roster edit while the team is past draft resets it to draft.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewable reports whether a status is a valid admin verdict.
func (s Status) Reviewable() bool {
	return s == StatusApproved || s == StatusRejected
}

// ReviewAllowed reports whether an admin decision may move a team from old
// to new. Review only acts on submitted teams: pending goes to approved or
// rejected, and a past verdict may be flipped either way. Draft teams were
// never submitted and are not the admin's to judge.
func ReviewAllowed(old, new Status) bool {
	if !new.Reviewable() {
		return false
	}
	switch old {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ResetsOnEdit reports whether a roster-mutating edit sends the team back to
// draft from this status.
func (s Status) ResetsOnEdit() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// GrantsRoles reports whether the transition hands out chat-platform roles.
// Grants are best-effort, so callers may fire and forget.
func GrantsRoles(old, new Status) bool {
	return old != StatusApproved && new == StatusApproved
}

// RequiresRevoke reports whether the transition must revoke chat-platform
// roles before the new status may be committed. Revocation is all-or-nothing:
// a team must never leave approved while anyone keeps the role.
func RequiresRevoke(old, new Status) bool {
	return old == StatusApproved && (new == StatusDraft || new == StatusRejected)
}
