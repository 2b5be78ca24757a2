// Package session owns client-side room state and binds it to the push channel.
//
// [Auth] holds the bearer token and profile, backed by a [CredentialStore]. [Session] is the room session:
// it joins and leaves rooms through the command client, keeps the authoritative queue, participants,
// current track and playback flag, and reconciles push events into that state. [Lifecycle] keeps at most one
// push channel bound, closing the previous binding before opening a new one.
//
// Mutation intents (AddTrack, RemoveTrack, VoteTrack) never touch local state; the matching push event does.
// Every event handler is tagged with the binding generation it was created for, so events that arrive after
// a leave or a room switch are discarded.
package session
