package moderation

import (
	"context"
	"log/slog"
	"time"

	"shutterdesk/internal/cache"
	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"
	"shutterdesk/internal/notifications"
	"shutterdesk/internal/observability"
	"shutterdesk/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Notifier records notifications produced by transitions.
type Notifier interface {
	Emit(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Actor is the caller identity the engine trusts for submitter and reviewer fields.
type Actor struct {
	ID   string
	Name string
	Role models.Role
}

// Options configures an Engine.
type Options struct {
	// AdminInboxID receives admin-facing notifications, see models.AdminInbox.
	AdminInboxID string
	// CountsTTL bounds how long cached counts are served.
	CountsTTL time.Duration
}

// Engine owns every status change of a content item.
type Engine struct {
	repo     repository.ContentRepository
	notifier Notifier
	counts   *cache.Cache
	opts     Options
	now      func() time.Time
}

// NewEngine creates an Engine. notifier and counts may be nil.
func NewEngine(repo repository.ContentRepository, notifier Notifier, counts *cache.Cache, opts Options) *Engine {
	if opts.AdminInboxID == "" {
		opts.AdminInboxID = models.AdminInbox("admin")
	}
	if opts.CountsTTL <= 0 {
		opts.CountsTTL = 30 * time.Second
	}
	return &Engine{
		repo:     repo,
		notifier: notifier,
		counts:   counts,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SubmitInput describes a new content item.
type SubmitInput struct {
	Kind      models.Kind
	Payload   models.Payload
	Submitter Actor
	// AutoApprove publishes an admin-authored item immediately.
	AutoApprove bool
	// VisibleOnHome applies with AutoApprove; nil means true.
	VisibleOnHome *bool
}

// ApproveInput moves an item to approved.
type ApproveInput struct {
	ID       string
	Reviewer Actor
	// VisibleOnHome defaults to true when nil.
	VisibleOnHome *bool
	// ExpectedStatus, when set, must match the stored status.
	ExpectedStatus models.Status
}

// RejectInput moves an item to rejected.
type RejectInput struct {
	ID             string
	Reviewer       Actor
	ExpectedStatus models.Status
}

// ToggleHomeInput sets home visibility on an approved item.
type ToggleHomeInput struct {
	ID             string
	Actor          Actor
	VisibleOnHome  bool
	ExpectedStatus models.Status
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func requireAdmin(a Actor, action string) error {
	if a.Role != models.RoleAdmin {
		return models.NewUnauthorizedError("only admins can " + action)
	}
	if a.ID == "" {
		return models.NewValidationError("reviewer id is required")
	}
	return nil
}

// Submit validates and stores a new item in its initial status.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (item *models.ContentItem, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.Submit", attribute.String("kind", string(in.Kind)))
	defer span.End()
	defer func() { e.record(span, in.Kind, "submit", err) }()

	if in.Submitter.ID == "" || !in.Submitter.Role.Valid() {
		return nil, models.NewValidationError("submitter identity is required")
	}
	if in.AutoApprove && in.Submitter.Role != models.RoleAdmin {
		return nil, models.NewUnauthorizedError("only admins can publish directly")
	}
	payload := normalizePayload(in.Payload)
	if err := ValidatePayload(in.Kind, payload); err != nil {
		return nil, err
	}

	now := e.now()
	item = &models.ContentItem{
		ID:            uuid.NewString(),
		Kind:          in.Kind,
		SubmitterRole: in.Submitter.Role,
		SubmitterID:   in.Submitter.ID,
		SubmitterName: in.Submitter.Name,
		Status:        initialStatus(in),
		Payload:       payload,
		SearchText:    payload.SearchText(),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if item.Status == models.StatusApproved {
		markReviewed(item, in.Submitter, now)
		item.VisibleOnHome = boolOr(in.VisibleOnHome, true)
	}
	if err := CheckInvariants(item); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := e.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	e.invalidateCounts(ctx)

	if item.Status == models.StatusPending && item.SubmitterRole == models.RolePhotographer {
		e.notify(ctx, notifications.SubmissionPending(item, e.opts.AdminInboxID))
	}
	return item, nil
}

func initialStatus(in SubmitInput) models.Status {
	if in.Submitter.Role == models.RoleAdmin {
		if in.AutoApprove {
			return models.StatusApproved
		}
		return models.StatusPending
	}
	switch in.Kind {
	case models.KindStory, models.KindGallery:
		return models.StatusDraft
	}
	return models.StatusPending
}

func markReviewed(item *models.ContentItem, reviewer Actor, at time.Time) {
	id, name := reviewer.ID, reviewer.Name
	item.ReviewedBy = &id
	item.ReviewedByName = &name
	item.ReviewedAt = &at
}

// RequestReview moves a submitter's draft to pending and alerts the admin inbox.
func (e *Engine) RequestReview(ctx context.Context, id string, submitter Actor) (item *models.ContentItem, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.RequestReview", attribute.String("item_id", id))
	defer span.End()
	var kind models.Kind
	defer func() { e.record(span, kind, string(EventRequestReview), err) }()

	item, err = e.transition(ctx, id, EventRequestReview, "", func(cur, next *models.ContentItem) error {
		kind = cur.Kind
		if submitter.ID == "" || submitter.ID != cur.SubmitterID {
			return models.NewUnauthorizedError("only the submitter can request review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, notifications.SubmissionPending(item, e.opts.AdminInboxID))
	return item, nil
}

// Approve records an approval; a photographer submitter is notified.
func (e *Engine) Approve(ctx context.Context, in ApproveInput) (item *models.ContentItem, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.Approve", attribute.String("item_id", in.ID))
	defer span.End()
	var kind models.Kind
	defer func() { e.record(span, kind, string(EventApprove), err) }()

	if err := requireAdmin(in.Reviewer, "approve content"); err != nil {
		return nil, err
	}
	item, err = e.transition(ctx, in.ID, EventApprove, in.ExpectedStatus, func(cur, next *models.ContentItem) error {
		kind = cur.Kind
		markReviewed(next, in.Reviewer, e.now())
		next.VisibleOnHome = boolOr(in.VisibleOnHome, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if item.SubmitterRole == models.RolePhotographer {
		e.notify(ctx, notifications.Approved(item))
	}
	return item, nil
}

// Reject records a rejection and hides the item from the home page.
func (e *Engine) Reject(ctx context.Context, in RejectInput) (item *models.ContentItem, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.Reject", attribute.String("item_id", in.ID))
	defer span.End()
	var kind models.Kind
	defer func() { e.record(span, kind, string(EventReject), err) }()

	if err := requireAdmin(in.Reviewer, "reject content"); err != nil {
		return nil, err
	}
	item, err = e.transition(ctx, in.ID, EventReject, in.ExpectedStatus, func(cur, next *models.ContentItem) error {
		kind = cur.Kind
		markReviewed(next, in.Reviewer, e.now())
		next.VisibleOnHome = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	if item.SubmitterRole == models.RolePhotographer {
		e.notify(ctx, notifications.Rejected(item))
	}
	return item, nil
}

// ToggleHome sets the home visibility of an approved item.
func (e *Engine) ToggleHome(ctx context.Context, in ToggleHomeInput) (item *models.ContentItem, err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.ToggleHome",
		attribute.String("item_id", in.ID), attribute.Bool("visible_on_home", in.VisibleOnHome))
	defer span.End()
	var kind models.Kind
	defer func() { e.record(span, kind, string(EventToggleHome), err) }()

	if err := requireAdmin(in.Actor, "change home visibility"); err != nil {
		return nil, err
	}
	return e.transition(ctx, in.ID, EventToggleHome, in.ExpectedStatus, func(cur, next *models.ContentItem) error {
		kind = cur.Kind
		next.VisibleOnHome = in.VisibleOnHome
		return nil
	})
}

// Delete hard-deletes an item.
func (e *Engine) Delete(ctx context.Context, id string, actor Actor) (err error) {
	span, ctx := observability.NewSpan(ctx, "moderation.Delete", attribute.String("item_id", id))
	defer span.End()
	var kind models.Kind
	defer func() { e.record(span, kind, "delete", err) }()

	if err := requireAdmin(actor, "delete content"); err != nil {
		return err
	}
	cur, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	kind = cur.Kind
	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}
	e.invalidateCounts(ctx)
	middleware.Logger.InfoContext(ctx, "content deleted",
		slog.String("item_id", id), slog.String("kind", string(kind)), slog.String("actor_id", actor.ID))
	return nil
}

// Get returns a single item.
func (e *Engine) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	return e.repo.GetByID(ctx, id)
}

// List returns items matching filter, newest first.
func (e *Engine) List(ctx context.Context, filter models.ContentFilter) ([]*models.ContentItem, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, models.NewValidationError("unknown kind")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.NewValidationError("unknown status")
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return e.repo.List(ctx, filter)
}

// Counts returns per-status cardinalities for kind, or for every kind when kind is empty.
func (e *Engine) Counts(ctx context.Context, kind models.Kind) (models.ContentCounts, error) {
	var counts models.ContentCounts
	if kind != "" && !kind.Valid() {
		return counts, models.NewValidationError("unknown kind")
	}
	err := e.counts.Aside(ctx, cache.CountsKey(kind), &counts, e.opts.CountsTTL, func() error {
		c, err := e.repo.CountByStatus(ctx, kind)
		counts = c
		return err
	})
	return counts, err
}

// transition reads id, applies event and writes the result with a
// compare-and-swap on the status and version that were read.
func (e *Engine) transition(
	ctx context.Context,
	id string,
	event Event,
	expected models.Status,
	apply func(cur, next *models.ContentItem) error,
) (*models.ContentItem, error) {
	cur, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expected != "" && cur.Status != expected {
		return nil, models.NewConcurrentModificationError(id)
	}
	to, err := Next(cur.Status, event)
	if err != nil {
		return nil, err
	}

	next := cur.Clone()
	next.Status = to
	if err := apply(cur, next); err != nil {
		return nil, err
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = e.now()
	if err := CheckInvariants(next); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := e.repo.UpdateIfUnchanged(ctx, next, cur.Status, cur.Version); err != nil {
		return nil, err
	}
	e.invalidateCounts(ctx)
	return next, nil
}

// notify emits n after a committed write. Failures are logged, never returned.
func (e *Engine) notify(ctx context.Context, n *models.Notification) {
	if e.notifier == nil {
		return
	}
	if _, err := e.notifier.Emit(ctx, n); err != nil {
		observability.LogAsyncOperationError(ctx, "notification.emit", err, map[string]any{
			"type":         n.Type,
			"recipient_id": n.RecipientID,
			"item_id":      n.RelatedItemID,
		})
	}
}

func (e *Engine) invalidateCounts(ctx context.Context) {
	e.counts.Invalidate(ctx, cache.CountsKeys()...)
}

func (e *Engine) record(span *observability.Span, kind models.Kind, event string, err error) {
	span.SetError(err)
	observability.ModerationTransitions.WithLabelValues(string(kind), event, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return observability.OutcomeOK
	}
	switch models.ErrorCode(err) {
	case models.CodeInvalidTransition:
		return observability.OutcomeInvalid
	case models.CodeConcurrentModification:
		return observability.OutcomeConflict
	case models.CodeNotFound:
		return observability.OutcomeNotFound
	case models.CodeValidation, models.CodeUnauthorized:
		return observability.OutcomeValidation
	}
	return observability.OutcomeError
}
