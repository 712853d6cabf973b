package moderation

import (
	"fmt"

	"shutterdesk/internal/models"
)

// CheckInvariants reports the first state invariant item violates.
func CheckInvariants(item *models.ContentItem) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("item %s: unknown kind %q", item.ID, item.Kind)
	}
	if !item.Status.Valid() {
		return fmt.Errorf("item %s: unknown status %q", item.ID, item.Status)
	}
	if item.VisibleOnHome && item.Status != models.StatusApproved {
		return fmt.Errorf("item %s: visible on home while %s", item.ID, item.Status)
	}
	reviewed := item.ReviewedBy != nil && item.ReviewedAt != nil
	partial := (item.ReviewedBy != nil) != (item.ReviewedAt != nil)
	if partial {
		return fmt.Errorf("item %s: incomplete review record", item.ID)
	}
	if reviewed != item.Status.Reviewed() {
		return fmt.Errorf("item %s: review record does not match status %s", item.ID, item.Status)
	}
	if item.Status == models.StatusDraft && item.SubmitterRole != models.RolePhotographer {
		return fmt.Errorf("item %s: draft items are photographer-authored", item.ID)
	}
	return nil
}
