// Package stream delivers query events to client sessions in order.
//
// # Overview
//
// A Hub tracks open sessions. Each Session owns two FIFO queues:
//
//   - events: drained by one pump goroutine that calls the transport's
//     deliver function, so a session observes events in emit order
//   - jobs: drained by one worker goroutine, so requests from the same
//     session run one at a time while different sessions run in parallel
//
// Queues are unbounded. Emit never blocks the producer and never drops an
// event for an open session.
//
// # Lifecycle
//
//	s := hub.Open(ctx, "", deliver)
//	s.Submit(func(ctx context.Context) { router.Handle(ctx, req) })
//	...
//	s.Close()
//
// Close cancels the session context, waits for the running job, then
// flushes queued events before returning. Emits addressed to an unknown or
// closed session are dropped and logged at debug level.
package stream
