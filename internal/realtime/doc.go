// Package realtime implements the push channel: one long-lived, room-scoped stream of server events.
//
// Two transports satisfy the same [Channel] contract and are selected by configuration:
//
//   - [EventStream] subscribes to a hub topic "rooms/{id}" over text/event-stream and reconnects
//     like a browser EventSource: fixed delay, overridable by the stream's retry field, no attempt cap.
//   - [Socket] dials "{base}/ws/room/{id}" with gorilla/websocket and reconnects with capped exponential
//     backoff ([Backoff]). After the cap the channel stays closed until [Socket.Reconnect].
//
// Frames are JSON objects discriminated by "type". [Decode] validates them; the transports log and drop
// malformed frames and unknown types so a bad frame never ends the stream.
package realtime
