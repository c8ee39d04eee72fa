package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType names a committed social-graph event.
type ActivityType string

const (
	ActivityRequestSent         ActivityType = "request_sent"
	ActivityRequestAutoAccepted ActivityType = "request_auto_accepted"
	ActivityRequestAccepted     ActivityType = "request_accepted"
	ActivityRequestRejected     ActivityType = "request_rejected"
	ActivityUnfriended          ActivityType = "unfriended"
	ActivityBlocked             ActivityType = "blocked"
	ActivityUnblocked           ActivityType = "unblocked"
)

// ActorOnlyActivityTypes are shown to the actor only. A blocked user never learns about
// the block from the journal.
var ActorOnlyActivityTypes = []ActivityType{ActivityBlocked, ActivityUnblocked}

// VisibleToTarget reports whether the target of an activity of type t may see it.
func (t ActivityType) VisibleToTarget() bool {
	for _, hidden := range ActorOnlyActivityTypes {
		if t == hidden {
			return false
		}
	}
	return true
}

// Activity is one entry of the social activity journal (MongoDB). Request rows are
// deleted on accept, so the journal is where request history lives.
type Activity struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type      ActivityType       `json:"type" bson:"type"`
	ActorID   string             `json:"actorId" bson:"actor_id"`
	TargetID  string             `json:"targetId,omitempty" bson:"target_id,omitempty"`
	RequestID string             `json:"requestId,omitempty" bson:"request_id,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
