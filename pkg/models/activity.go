package models

import "time"

// EventType enumerates the activity and points event kinds.
type EventType string

const (
	EventSkillPublished  EventType = "skill_published"
	EventSkillInstalled  EventType = "skill_installed"
	EventSkillStarred    EventType = "skill_starred"
	EventReviewSubmitted EventType = "review_submitted"
	EventInviteAccepted  EventType = "invite_accepted"
	EventAgentSubmitted  EventType = "agent_submitted"
	EventMilestone       EventType = "milestone"
	EventDailyLogin      EventType = "daily_login"
)

// ActorType distinguishes human actors from agent actors in the feed.
type ActorType string

const (
	ActorHuman ActorType = "human"
	ActorAgent ActorType = "agent"
)

// ActivityRecord is an append-only feed entry. Write-once, read for the
// "recent N" feed ordered by creation time.
type ActivityRecord struct {
	ID          string            `json:"id"`
	Event       EventType         `json:"event_type"`
	SkillID     string            `json:"skill_id,omitempty"`
	ActorName   string            `json:"actor_name"`
	ActorType   ActorType         `json:"actor_type"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PointEvent is an append-only ledger entry. A user's point total is always
// the sum of their events, never a stored counter.
type PointEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int       `json:"amount"`
	Event       EventType `json:"event_type"`
	Description string    `json:"description,omitempty"`
	ReferenceID string    `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RewardTable maps point-earning event types to their fixed amounts.
// Event types missing here are rejected at the API boundary.
var RewardTable = map[EventType]int{
	EventSkillPublished:  500,
	EventSkillInstalled:  10,
	EventSkillStarred:    5,
	EventReviewSubmitted: 50,
	EventInviteAccepted:  200,
	EventDailyLogin:      5,
}
