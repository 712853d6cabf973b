// Package seed generates demo suggestions, stories and galleries. Everything
// goes through the moderation engine so seeded data obeys the same rules and
// produces the same notifications as real traffic.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"
)

// Options configures a seeding run.
type Options struct {
	Photographers        int
	ItemsPerPhotographer int
	// ReviewRatio is the share of pending items an admin reviews.
	ReviewRatio float64
	// ApproveRatio is the share of reviewed items that are approved.
	ApproveRatio float64
	// AdminItems are published directly by the admin.
	AdminItems int
}

// DefaultOptions is a small but varied data set.
var DefaultOptions = Options{
	Photographers:        8,
	ItemsPerPhotographer: 6,
	ReviewRatio:          0.6,
	ApproveRatio:         0.75,
	AdminItems:           4,
}

// Summary reports what a run produced.
type Summary struct {
	Submitted int
	Reviewed  int
	Approved  int
	Rejected  int
	Drafts    int
}

// Seeder drives the engine with generated data.
type Seeder struct {
	engine  *moderation.Engine
	factory *Factory
	admin   moderation.Actor
}

// NewSeeder creates a Seeder that reviews as admin. A non-zero randSeed makes
// runs reproducible.
func NewSeeder(engine *moderation.Engine, admin moderation.Actor, randSeed int64) *Seeder {
	return &Seeder{engine: engine, factory: NewFactory(randSeed), admin: admin}
}

// Run submits, requests review for and moderates generated content.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	if s.admin.Role != models.RoleAdmin {
		return sum, fmt.Errorf("seed reviewer must be an admin")
	}

	for i := 0; i < opts.AdminItems; i++ {
		kind := s.factory.Kind()
		if _, err := s.engine.Submit(ctx, moderation.SubmitInput{
			Kind:        kind,
			Payload:     s.factory.Payload(kind),
			Submitter:   s.admin,
			AutoApprove: true,
		}); err != nil {
			return sum, fmt.Errorf("admin item %d: %w", i, err)
		}
		sum.Submitted++
		sum.Approved++
	}

	for p := 0; p < opts.Photographers; p++ {
		photographer := s.factory.Photographer()
		for i := 0; i < opts.ItemsPerPhotographer; i++ {
			if err := s.submitOne(ctx, photographer, opts, &sum); err != nil {
				return sum, err
			}
		}
	}

	log.Printf("Seeded %d items: %d reviewed (%d approved, %d rejected), %d drafts left",
		sum.Submitted, sum.Reviewed, sum.Approved, sum.Rejected, sum.Drafts)
	return sum, nil
}

func (s *Seeder) submitOne(ctx context.Context, photographer moderation.Actor, opts Options, sum *Summary) error {
	kind := s.factory.Kind()
	item, err := s.engine.Submit(ctx, moderation.SubmitInput{
		Kind:      kind,
		Payload:   s.factory.Payload(kind),
		Submitter: photographer,
	})
	if err != nil {
		return fmt.Errorf("submit %s for %s: %w", kind, photographer.ID, err)
	}
	sum.Submitted++

	if item.Status == models.StatusDraft {
		if !s.factory.Chance(0.7) {
			sum.Drafts++
			return nil
		}
		id := item.ID
		if item, err = s.engine.RequestReview(ctx, id, photographer); err != nil {
			return fmt.Errorf("request review %s: %w", id, err)
		}
	}

	if !s.factory.Chance(opts.ReviewRatio) {
		return nil
	}
	sum.Reviewed++
	if s.factory.Chance(opts.ApproveRatio) {
		visible := s.factory.Chance(0.5)
		_, err = s.engine.Approve(ctx, moderation.ApproveInput{
			ID:             item.ID,
			Reviewer:       s.admin,
			VisibleOnHome:  &visible,
			ExpectedStatus: models.StatusPending,
		})
		sum.Approved++
	} else {
		_, err = s.engine.Reject(ctx, moderation.RejectInput{
			ID:             item.ID,
			Reviewer:       s.admin,
			ExpectedStatus: models.StatusPending,
		})
		sum.Rejected++
	}
	if err != nil {
		return fmt.Errorf("review %s: %w", item.ID, err)
	}
	return nil
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
