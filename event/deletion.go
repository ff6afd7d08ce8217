package event

import (
	"github.com/gookit/event"
	"go.ule.co/platform/db/models"
)

const (
	EVENT_DELETION_REQUESTED = "deletion.requested"
	EVENT_DELETION_CONFIRMED = "deletion.confirmed"
	EVENT_DELETION_CANCELLED = "deletion.cancelled"
	EVENT_DELETION_EXECUTED  = "deletion.executed"
)

// DeletionEvent carries a snapshot of the request and its owner. The owner is
// captured before execution so listeners can still reach a removed account.
type DeletionEvent struct {
	*event.BasicEvent
}

func (e *DeletionEvent) SetUser(user *models.User) {
	e.Set("user", user)
}

func (e *DeletionEvent) User() *models.User {
	user, _ := e.Get("user").(*models.User)
	return user
}

func (e *DeletionEvent) SetRequest(request models.DeletionRequest) {
	e.Set("request", request)
}

func (e *DeletionEvent) Request() models.DeletionRequest {
	request, _ := e.Get("request").(models.DeletionRequest)
	return request
}

func newDeletionEvent(base *event.BasicEvent, user *models.User, request models.DeletionRequest) *DeletionEvent {
	evt := &DeletionEvent{BasicEvent: base}
	evt.SetUser(user)
	evt.SetRequest(request)
	return evt
}

func FireDeletionRequestedEvent(em *event.Manager, user *models.User, request models.DeletionRequest) error {
	return fire(em, EVENT_DELETION_REQUESTED, func(base *event.BasicEvent) *DeletionEvent {
		return newDeletionEvent(base, user, request)
	})
}

func FireDeletionConfirmedEvent(em *event.Manager, user *models.User, request models.DeletionRequest) error {
	return fire(em, EVENT_DELETION_CONFIRMED, func(base *event.BasicEvent) *DeletionEvent {
		return newDeletionEvent(base, user, request)
	})
}

func FireDeletionCancelledEvent(em *event.Manager, user *models.User, request models.DeletionRequest) error {
	return fire(em, EVENT_DELETION_CANCELLED, func(base *event.BasicEvent) *DeletionEvent {
		return newDeletionEvent(base, user, request)
	})
}

func FireDeletionExecutedEvent(em *event.Manager, user *models.User, request models.DeletionRequest) error {
	return fire(em, EVENT_DELETION_EXECUTED, func(base *event.BasicEvent) *DeletionEvent {
		return newDeletionEvent(base, user, request)
	})
}

// OnDeletion subscribes fn to one deletion lifecycle event.
func OnDeletion(em *event.Manager, name string, fn func(evt *DeletionEvent) error) {
	em.On(name, event.ListenerFunc(func(e event.Event) error {
		evt, ok := e.(*DeletionEvent)
		if !ok {
			return nil
		}
		return fn(evt)
	}))
}
