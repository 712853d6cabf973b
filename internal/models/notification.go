package models

import "time"

// NotificationType identifies why a notification was emitted.
type NotificationType string

const (
	// NotificationSubmissionPending tells admins a new item awaits review.
	NotificationSubmissionPending NotificationType = "submission_pending"
	// NotificationApproved tells a submitter their item was approved.
	NotificationApproved NotificationType = "approved"
	// NotificationRejected tells a submitter their item was rejected.
	NotificationRejected NotificationType = "rejected"
)

// AdminInboxPrefix namespaces the shared admin inbox. Session subjects may
// not start with it, so no user id can alias the admin inbox.
const AdminInboxPrefix = "admin-inbox:"

// AdminInbox returns the recipient id of the admin inbox called name.
func AdminInbox(name string) string {
	return AdminInboxPrefix + name
}

// Notification is a durable inbox record.
type Notification struct {
	ID             string           `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Type           NotificationType `gorm:"type:varchar(32);not null" bson:"type" json:"type"`
	Title          string           `gorm:"size:255;not null" bson:"title" json:"title"`
	Message        string           `gorm:"type:text;not null" bson:"message" json:"message"`
	RecipientID    string           `gorm:"size:64;not null;index:idx_notifications_recipient_read" bson:"recipient_id" json:"recipient_id"`
	RelatedItemID  string           `gorm:"size:36;index" bson:"related_item_id" json:"related_item_id"`
	RelatedKind    Kind             `gorm:"type:varchar(20)" bson:"related_kind" json:"related_kind"`
	ActionRequired bool             `gorm:"not null;default:false" bson:"action_required" json:"action_required"`
	Read           bool             `gorm:"column:is_read;not null;default:false;index:idx_notifications_recipient_read" bson:"read" json:"read"`
	ReadAt         *time.Time       `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt      time.Time        `gorm:"index" bson:"created_at" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}
