package notifications

import (
	"fmt"

	"shutterdesk/internal/models"
)

func subject(item *models.ContentItem) string {
	name := item.Payload.DisplayName()
	if name == "" {
		return string(item.Kind)
	}
	return fmt.Sprintf("%s %q", item.Kind, name)
}

// SubmissionPending builds the admin-facing notice for an item awaiting review.
func SubmissionPending(item *models.ContentItem, adminInbox string) *models.Notification {
	by := item.SubmitterName
	if by == "" {
		by = item.SubmitterID
	}
	return &models.Notification{
		Type:           models.NotificationSubmissionPending,
		Title:          "New submission pending review",
		Message:        fmt.Sprintf("%s submitted %s for review.", by, subject(item)),
		RecipientID:    adminInbox,
		RelatedItemID:  item.ID,
		RelatedKind:    item.Kind,
		ActionRequired: true,
	}
}

// Approved builds the submitter-facing approval notice.
func Approved(item *models.ContentItem) *models.Notification {
	return &models.Notification{
		Type:          models.NotificationApproved,
		Title:         "Submission approved",
		Message:       fmt.Sprintf("Your %s was approved.", subject(item)),
		RecipientID:   item.SubmitterID,
		RelatedItemID: item.ID,
		RelatedKind:   item.Kind,
	}
}

// Rejected builds the submitter-facing rejection notice.
func Rejected(item *models.ContentItem) *models.Notification {
	return &models.Notification{
		Type:          models.NotificationRejected,
		Title:         "Submission rejected",
		Message:       fmt.Sprintf("Your %s was not approved.", subject(item)),
		RecipientID:   item.SubmitterID,
		RelatedItemID: item.ID,
		RelatedKind:   item.Kind,
	}
}
