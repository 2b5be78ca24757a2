// Package tasks runs bulk queue operations against the command API with real-time progress reporting.
//
// # Core Operations
//
//  1. [QueueEngine.Import] : Add many tracks to a room's queue
//     - Input lines are track IDs or "search:<query>"; blank lines and "#" comments are skipped
//     - Track IDs resolve through the local cache first, then the API
//     - Search lines take the first catalog result
//     - Adds are paced by a rate limiter and failures are reported per line
//
//  2. [QueueEngine.ExportRooms] : Export the queues of several rooms
//     - A worker pool renders each room through the formatter package
//     - A JSON manifest summarizes successes and failures
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel.
// Sends use select with default so a slow reader never stalls the operation.
//
// # Queue State
//
// Import only issues commands. A room's queue still changes only through push events,
// so a live session sees imported tracks as track_added events.
package tasks
