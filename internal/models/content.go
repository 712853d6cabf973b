package models

import (
	"strings"
	"time"
)

// Kind discriminates which admin surface renders a content item.
type Kind string

const (
	// KindCategory is a photography category suggestion.
	KindCategory Kind = "category"
	// KindCity is a city suggestion.
	KindCity Kind = "city"
	// KindStory is a photographer story.
	KindStory Kind = "story"
	// KindGallery is a photographer gallery category.
	KindGallery Kind = "gallery"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindCategory, KindCity, KindStory, KindGallery}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCategory, KindCity, KindStory, KindGallery:
		return true
	}
	return false
}

// Status is the moderation status of a content item.
type Status string

const (
	// StatusDraft is only reachable for photographer-authored stories and galleries.
	StatusDraft Status = "draft"
	// StatusPending indicates the item is awaiting review.
	StatusPending Status = "pending"
	// StatusApproved indicates the item was accepted.
	StatusApproved Status = "approved"
	// StatusRejected indicates the item was declined.
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewed reports whether s carries a review record.
func (s Status) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

// Role is the role of the actor that submitted an item.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePhotographer Role = "photographer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RolePhotographer
}

// Payload holds the kind-specific fields of a content item. The moderation
// state machine never reads it beyond validation and search indexing.
type Payload struct {
	Name        string   `json:"name,omitempty" bson:"name,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Image       string   `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,imageref"`
	Title       string   `json:"title,omitempty" bson:"title,omitempty"`
	Content     string   `json:"content,omitempty" bson:"content,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty" bson:"cover_image,omitempty" validate:"omitempty,imageref"`
	Location    string   `json:"location,omitempty" bson:"location,omitempty"`
	Date        string   `json:"date,omitempty" bson:"date,omitempty"`
	Images      []string `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,dive,imageref"`
}

// SearchText returns the lower-cased text the free-text filter matches against.
func (p Payload) SearchText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Title, p.Description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// DisplayName returns the name or title, whichever the kind uses.
func (p Payload) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}

// ContentItem is a moderated record: a category or city suggestion, a story, or a gallery.
type ContentItem struct {
	ID             string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Kind           Kind       `gorm:"type:varchar(20);not null;index" bson:"kind" json:"kind"`
	SubmitterRole  Role       `gorm:"type:varchar(20);not null" bson:"submitter_role" json:"submitter_role"`
	SubmitterID    string     `gorm:"size:64;not null;index" bson:"submitter_id" json:"submitter_id"`
	SubmitterName  string     `gorm:"size:120" bson:"submitter_name" json:"submitter_name"`
	Status         Status     `gorm:"type:varchar(20);not null;index" bson:"status" json:"status"`
	VisibleOnHome  bool       `gorm:"not null;default:false;index" bson:"visible_on_home" json:"visible_on_home"`
	ReviewedBy     *string    `gorm:"size:64" bson:"reviewed_by,omitempty" json:"reviewed_by"`
	ReviewedByName *string    `gorm:"size:120" bson:"reviewed_by_name,omitempty" json:"reviewed_by_name"`
	ReviewedAt     *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at"`
	Payload        Payload    `gorm:"serializer:json;type:text" bson:"payload" json:"payload"`
	SearchText     string     `gorm:"type:text" bson:"search_text" json:"-"`
	Version        int64      `gorm:"not null;default:1" bson:"version" json:"version"`
	CreatedAt      time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (ContentItem) TableName() string {
	return "content_items"
}

// Clone returns a deep copy of the item.
func (c *ContentItem) Clone() *ContentItem {
	out := *c
	if c.ReviewedBy != nil {
		v := *c.ReviewedBy
		out.ReviewedBy = &v
	}
	if c.ReviewedByName != nil {
		v := *c.ReviewedByName
		out.ReviewedByName = &v
	}
	if c.ReviewedAt != nil {
		v := *c.ReviewedAt
		out.ReviewedAt = &v
	}
	if c.Payload.Images != nil {
		out.Payload.Images = append([]string(nil), c.Payload.Images...)
	}
	return &out
}

// ContentFilter selects items for listing. Zero values mean "any".
type ContentFilter struct {
	Kind          Kind
	Status        Status
	SubmitterID   string
	VisibleOnHome *bool
	SearchText    string
	Limit         int
	Offset        int
}

// ContentCounts holds the per-status cardinalities shown on admin tabs.
type ContentCounts struct {
	Total    int64 `json:"total"`
	Draft    int64 `json:"draft"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// Add increments the counter for status by n.
func (c *ContentCounts) Add(status Status, n int64) {
	c.Total += n
	switch status {
	case StatusDraft:
		c.Draft += n
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}
