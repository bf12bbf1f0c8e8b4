package db

import (
	"context"
	"log"
	"math/rand"
	"time"

	"arenahub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// fallbackTopics keeps matches playable when the topics collection is
// empty or the database is down.
var fallbackTopics = []models.Topic{
	{Title: "AI vs HUMANITY", Description: "Will artificial intelligence eventually replace all human creativity?"},
	{Title: "COLONIZING MARS", Description: "Is spending billions on Mars better than fixing Earth?"},
	{Title: "NICKNAME: CRYPTO", Description: "Is decentralization a true revolution or a speculative bubble?"},
}

// MongoStore persists match results and serves topics. Every method
// tolerates a missing database connection: match state in memory is the
// source of truth during play and persistence is advisory.
type MongoStore struct{}

// NewMongoStore returns a store backed by the package-level connection.
func NewMongoStore() *MongoStore {
	return &MongoStore{}
}

// SaveMatchResult writes the final state of a finished match. Best-effort.
func (s *MongoStore) SaveMatchResult(result models.MatchResult) error {
	if MongoDatabase == nil {
		log.Printf("Skipping match result for %s: database not connected", result.MatchID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	_, err := MongoDatabase.Collection("match_results").InsertOne(ctx, result)
	if err != nil {
		log.Printf("Error saving match result for %s: %v", result.MatchID, err)
		return err
	}
	return nil
}

// SaveMatchMessage records one scored utterance. Best-effort.
func (s *MongoStore) SaveMatchMessage(msg models.MatchMessage) error {
	if MongoDatabase == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := MongoDatabase.Collection("match_messages").InsertOne(ctx, msg)
	if err != nil {
		log.Printf("Error saving match message for %s: %v", msg.MatchID, err)
		return err
	}
	return nil
}

// RandomTopic returns a topic for a new match, falling back to the
// built-in set when the store is unavailable.
func (s *MongoStore) RandomTopic(ctx context.Context) models.Topic {
	if MongoDatabase == nil {
		return fallbackTopics[rand.Intn(len(fallbackTopics))]
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := []bson.M{{"$sample": bson.M{"size": 1}}}
	cursor, err := MongoDatabase.Collection("topics").Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Error fetching random topic: %v", err)
		return fallbackTopics[rand.Intn(len(fallbackTopics))]
	}
	defer cursor.Close(ctx)

	var topic models.Topic
	if cursor.Next(ctx) {
		if err := cursor.Decode(&topic); err == nil && topic.Title != "" {
			return topic
		}
	}
	return fallbackTopics[rand.Intn(len(fallbackTopics))]
}

// UserRating looks up a player's ranked rating, defaulting to 1200.
func (s *MongoStore) UserRating(userID string) int {
	if MongoDatabase == nil {
		return 1200
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user struct {
		Rating float64 `bson:"rating"`
	}
	err := MongoDatabase.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Printf("Error fetching rating for %s: %v", userID, err)
		}
		return 1200
	}

	rating := int(user.Rating)
	if rating == 0 {
		rating = 1200
	}
	return rating
}
