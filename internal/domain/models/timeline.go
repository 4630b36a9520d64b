package models

import (
	"sort"
	"time"
)

// TimelineItemType discriminates the variants of TimelineItem
type TimelineItemType string

const (
	TimelineMessage TimelineItemType = "message"
	TimelineVersion TimelineItemType = "version"
)

// TimelineItem is one entry of the merged conversation/version view.
// Exactly one of Message or Version is set, matching Type.
type TimelineItem struct {
	Type      TimelineItemType   `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Message   *ConversationEntry `json:"message,omitempty"`
	Version   *Version           `json:"version,omitempty"`
}

// MessageItem wraps a conversation entry as a timeline item
func MessageItem(e ConversationEntry) TimelineItem {
	return TimelineItem{Type: TimelineMessage, Timestamp: e.Timestamp, Message: &e}
}

// VersionItem wraps a version as a timeline item
func VersionItem(v Version) TimelineItem {
	return TimelineItem{Type: TimelineVersion, Timestamp: v.Timestamp, Version: &v}
}

// BuildTimeline merges entries and versions by timestamp.
// On equal timestamps messages come first, then insertion order.
func BuildTimeline(entries []ConversationEntry, versions []Version) []TimelineItem {
	items := make([]TimelineItem, 0, len(entries)+len(versions))
	for _, e := range entries {
		items = append(items, MessageItem(e))
	}
	for _, v := range versions {
		items = append(items, VersionItem(v))
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Type != b.Type {
			return a.Type == TimelineMessage
		}
		return a.seq() < b.seq()
	})
	return items
}

func (t TimelineItem) seq() int64 {
	switch t.Type {
	case TimelineMessage:
		return t.Message.Seq
	case TimelineVersion:
		return t.Version.Seq
	}
	return 0
}
