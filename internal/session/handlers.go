package session

import (
	"slices"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/realtime"
)

// apply runs mutate under the session lock if gen still identifies the live binding.
// Every push event reaches session state through here.
func (s *Session) apply(gen uint64, kind realtime.EventType, mutate func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.room == nil {
		s.logger.Debug("discarding stale event", "type", kind)
		return
	}
	mutate()
	s.notify()
}

// handlers builds the reconciliation handlers for one binding.
func (s *Session) handlers(gen uint64) realtime.Handlers {
	return realtime.Handlers{
		OnQueueUpdate: func(queue []models.QueueItem) {
			s.apply(gen, realtime.QueueUpdate, func() {
				s.queue = slices.Clone(queue)
				if s.queue == nil {
					s.queue = []models.QueueItem{}
				}
			})
		},
		OnTrackAdded: func(item models.QueueItem) {
			s.apply(gen, realtime.TrackAdded, func() {
				// redelivery of the same queue item replaces it in place
				if i := indexItem(s.queue, item.ID); i >= 0 {
					s.queue[i] = item
					return
				}
				s.queue = append(s.queue, item)
			})
		},
		OnTrackRemoved: func(queueItemID string) {
			s.apply(gen, realtime.TrackRemoved, func() {
				s.queue = slices.DeleteFunc(s.queue, func(q models.QueueItem) bool { return q.ID == queueItemID })
			})
		},
		OnVoteUpdate: func(queueItemID string, votes int) {
			s.apply(gen, realtime.VoteUpdate, func() {
				if i := indexItem(s.queue, queueItemID); i >= 0 {
					s.queue[i].Votes = votes
				}
			})
		},
		OnParticipantJoined: func(user models.User) {
			s.apply(gen, realtime.ParticipantJoined, func() {
				if indexUser(s.participants, user.ID) < 0 {
					s.participants = append(s.participants, user)
				}
			})
		},
		OnParticipantLeft: func(userID string) {
			s.apply(gen, realtime.ParticipantLeft, func() {
				s.participants = slices.DeleteFunc(s.participants, func(u models.User) bool { return u.ID == userID })
			})
		},
		OnCurrentTrackChanged: func(item *models.QueueItem) {
			s.apply(gen, realtime.CurrentTrackChanged, func() {
				if item == nil {
					s.current = nil
					return
				}
				cur := *item
				s.current = &cur
			})
		},
		OnPlaybackStateChanged: func(playing bool) {
			s.apply(gen, realtime.PlaybackStateChanged, func() {
				s.playing = playing
			})
		},
	}
}
