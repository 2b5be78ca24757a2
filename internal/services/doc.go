// Package services implements the command client: authenticated request/response calls against the room backend.
//
// # Client
//
// [Client] is stateless per call. Every request carries JSON bodies and, when the injected [TokenProvider]
// has a token, an "Authorization: Bearer" header added by an [oauth2.Transport]. Requests are paced with a
// [rate.Limiter] so bulk operations such as queue import cannot flood the backend.
//
// # Endpoints
//
//   - Auth: [Client.Login], [Client.Register], [Client.CurrentUser]
//   - Rooms: [Client.ListRooms], [Client.CreateRoom], [Client.GetRoom], [Client.JoinRoom], [Client.LeaveRoom], [Client.DeleteRoom]
//   - Queue: [Client.Queue], [Client.AddTrack], [Client.RemoveTrack], [Client.VoteTrack]
//   - Tracks: [Client.SearchTracks], [Client.GetTrack], [Client.CreateTrack]
//
// Room payloads are returned raw because the backend uses several field spellings for the same data;
// the session package normalizes them.
//
// # Error Handling
//
// Transport failures wrap [shared.ErrNetwork] with a readable message. Non-2xx responses return an [APIError]
// whose message is taken from the body's "message", "hydra:description" or "hydra:title" field, a bare JSON
// string body, or a generic "HTTP error, status N" fallback. [APIError] unwraps to [shared.ErrAPIRequest].
package services
