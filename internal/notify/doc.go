/*
Package notify provides the gateway's real-time notification bus
(SPEC_FULL.md §4.9): publish(event) fans events out to every currently-alive
subscriber, in per-subscriber publication order, with no cross-subscriber
ordering guarantee.

Publishing:

	notify.Publish(notify.Event{Type: notify.SessionUpdated, Payload: session})

Subscribing:

	unsubscribe := notify.Subscribe(notify.SessionUpdated, func(e notify.Event) {
	    ...
	})
	defer unsubscribe()

Each subscriber is backed by its own bounded channel and drain goroutine; a
publish that finds a subscriber's queue full drops that subscriber's copy
of the event rather than blocking the publisher, per the fan-out-task design
in spec.md §9.

For tests that need to observe delivery before asserting, PublishSync
delivers directly (bypassing the bounded queues) and NewBus/Reset create
isolated bus instances.
*/
package notify
