package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchResult is the persisted final state of a finished match.
type MatchResult struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MatchID       string             `bson:"matchId" json:"matchId"`
	FinalMomentum int                `bson:"finalMomentum" json:"finalMomentum"`
	Winner        string             `bson:"winner" json:"winner"` // "LEFT" or "RIGHT"
	Transcript    []string           `bson:"transcript" json:"transcript"`
	Mode          string             `bson:"mode" json:"mode"`
	Difficulty    string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	LeftPlayerID  string             `bson:"leftPlayerId,omitempty" json:"leftPlayerId,omitempty"`
	RightPlayerID string             `bson:"rightPlayerId,omitempty" json:"rightPlayerId,omitempty"`
	InputMode     string             `bson:"inputMode" json:"inputMode"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// MatchMessage is a single scored utterance record.
type MatchMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MatchID   string             `bson:"matchId" json:"matchId"`
	UserID    string             `bson:"userId,omitempty" json:"userId,omitempty"`
	Text      string             `bson:"text" json:"text"`
	Phase     Phase              `bson:"phase" json:"phase"`
	Delta     int                `bson:"delta" json:"delta"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
