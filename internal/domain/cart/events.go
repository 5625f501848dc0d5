package cart

import "time"

// ChangedEvent is emitted after every successful cart mutation (add, update,
// clear). It carries no payload beyond the owning user: observers re-fetch
// the cart through the view operation instead of receiving deltas.
type ChangedEvent struct {
	UserID     string
	OccurredAt time.Time
}

func (ChangedEvent) EventName() string { return "cart.changed" }

func NewChangedEvent(userID string) ChangedEvent {
	return ChangedEvent{
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}
