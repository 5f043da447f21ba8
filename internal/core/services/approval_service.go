package services

import (
	"fmt"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
)

// EntryAction is a workflow command evaluated by the authorization engine.
type EntryAction string

const (
	ActionSubmit  EntryAction = "submit"
	ActionApprove EntryAction = "approve"
	ActionReject  EntryAction = "reject"
	ActionPost    EntryAction = "post"
	ActionReverse EntryAction = "reverse"
)

// AuthorizeEntryAction decides whether a principal may perform an action on an
// entry. Pure with respect to the entry and principal; it must be called
// before any state mutation. Rules are evaluated in order:
//  1. The author may never approve their own entry, at either stage.
//  2. The first approver may not also provide the final signature.
//  3. A posted entry accepts no action other than reverse.
func AuthorizeEntryAction(entry *domain.JournalEntry, principal domain.Principal, action EntryAction) error {
	if action == ActionApprove && principal.UserID == entry.CreatedBy {
		return fmt.Errorf("%w: author may not approve their own entry %s", apperrors.ErrForbidden, entry.EntryID)
	}

	if action == ActionApprove && entry.Status == domain.StatusPendingFinalApproval &&
		entry.Approval.FirstApprovedBy != nil && principal.UserID == *entry.Approval.FirstApprovedBy {
		return fmt.Errorf("%w: first approver may not also provide the final signature on entry %s", apperrors.ErrForbidden, entry.EntryID)
	}

	if entry.IsImmutable() && action != ActionReverse {
		return fmt.Errorf("%w: entry %s is posted and accepts no further %s", apperrors.ErrForbidden, entry.EntryID, action)
	}

	return nil
}
