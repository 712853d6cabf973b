// Package moderation implements the content approval workflow shared by
// category and city suggestions, stories and galleries.
package moderation

import "shutterdesk/internal/models"

// Event is an action applied to a content item.
type Event string

const (
	EventRequestReview Event = "request_review"
	EventApprove       Event = "approve"
	EventReject        Event = "reject"
	EventToggleHome    Event = "toggle_home"
)

// allowedTransitions maps a status and event to the resulting status.
// Approved and rejected accept re-review in either direction.
var allowedTransitions = map[models.Status]map[Event]models.Status{
	models.StatusDraft: {
		EventRequestReview: models.StatusPending,
	},
	models.StatusPending: {
		EventApprove: models.StatusApproved,
		EventReject:  models.StatusRejected,
	},
	models.StatusApproved: {
		EventApprove:    models.StatusApproved,
		EventReject:     models.StatusRejected,
		EventToggleHome: models.StatusApproved,
	},
	models.StatusRejected: {
		EventApprove: models.StatusApproved,
		EventReject:  models.StatusRejected,
	},
}

// Next returns the status reached by applying event in status from.
func Next(from models.Status, event Event) (models.Status, error) {
	if to, ok := allowedTransitions[from][event]; ok {
		return to, nil
	}
	return "", models.NewInvalidTransitionError(from, humanEvent(event))
}

// CanTransition reports whether event is accepted in status from.
func CanTransition(from models.Status, event Event) bool {
	_, ok := allowedTransitions[from][event]
	return ok
}

func humanEvent(e Event) string {
	switch e {
	case EventRequestReview:
		return "request review for"
	case EventToggleHome:
		return "toggle home visibility of"
	}
	return string(e)
}
