package delivery

import "errors"

// Delivery state for notification side effects. The queue is at-least-once,
// so the same reminder can be handed to more than one worker; these errors
// let the second claimer bail out without re-sending.
var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification delivery in progress")
)

const KindEventReminder = "event.reminder"
