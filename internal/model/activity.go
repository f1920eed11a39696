package model

import "time"

// ActivityCreated is the only activity type this layer synthesizes.
// The feed is derived from idea creation events; edits, stars, and forks
// are not recorded as activity even though the type field could carry them.
const ActivityCreated = "created"

// Activity is a derived, read-only feed entry. It is synthesized from idea
// rows at query time and has no independent persistence — it is not a true
// append-log.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	User        User      `json:"user"`
	Idea        Idea      `json:"idea"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
