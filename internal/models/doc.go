// Package models defines the room, queue and catalog shapes shared by the command client, the push channel and the room session.
//
// The package contains two categories of types:
//
// 1. Wire shapes exchanged with the backend:
//   - [User] : Account identity, compared by ID
//   - [Track] : Immutable catalog entry
//   - [QueueItem] : A track placed in a room's queue, with its own ID and vote count
//   - [Room] : Canonical room shape (owner, participants, queue, current track)
//
// 2. Local persistence:
//   - [CachedTrack] : Track cache rows implementing [Model]
//   - [Credential] : The stored bearer token and profile
//
// Session operations report outcomes as a [Result] rather than an error so callers can render inline messages.
package models
