package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
)

var _ list.Item = queueItem{}

// queueItem wraps [models.QueueItem] to implement [list.Item].
type queueItem struct {
	item models.QueueItem
	now  time.Time
}

func (i queueItem) FilterValue() string { return i.item.Track.Name + " " + i.item.Track.Artist }
func (i queueItem) Title() string {
	if i.item.Track.Artist == "" {
		return i.item.Track.Name
	}
	return fmt.Sprintf("%s - %s", i.item.Track.Artist, i.item.Track.Name)
}
func (i queueItem) Description() string {
	parts := []string{fmt.Sprintf("%+d votes", i.item.Votes), formatter.FormatDuration(i.item.Track.Duration)}
	if i.item.AddedBy != nil {
		parts = append(parts, "added by "+i.item.AddedBy.Name)
	}
	if added := i.item.AddedTime(); !added.IsZero() {
		parts = append(parts, humanize.RelTime(added, i.now, "ago", "from now"))
	}
	return strings.Join(parts, " • ")
}

func queueItems(queue []models.QueueItem, now time.Time) []list.Item {
	items := make([]list.Item, len(queue))
	for i, q := range queue {
		items[i] = queueItem{item: q, now: now}
	}
	return items
}
