package watch

import "time"

// GroupRef identifies a log group the resolver matched for the watched
// deployment, with the criterion that matched it. The resolved set only
// ever grows during a watch.
type GroupRef struct {
	Name         string
	MatchedBy    string // "prefix" or "pattern"
	DiscoveredAt time.Time
}

// Event is one log line ready for emission. Timestamp is milliseconds
// since the Unix epoch. Sequence is the group-local discriminator used to
// break timestamp ties deterministically; it carries no other meaning.
type Event struct {
	Group     string
	Timestamp int64
	Sequence  int64
	Message   string
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Less orders events by (timestamp, sequence, group) ascending. The second
// and third keys only make the order deterministic when timestamps collide.
func (e Event) Less(other Event) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp < other.Timestamp
	}
	if e.Sequence != other.Sequence {
		return e.Sequence < other.Sequence
	}
	return e.Group < other.Group
}

// Cursor is a tailer's read position: the service's continuation token
// plus the timestamp of the last emitted event. It never moves backward.
type Cursor struct {
	Token         string
	LastTimestamp int64
}
