package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/lawchat-be/config"
	"github.com/tieubaoca/lawchat-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConversationStore persists conversations and messages. It sits
// outside the answer pipeline, which only reads recent turns from it.
type MongoConversationStore struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoClient(cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetBSONOptions(&options.BSONOptions{
			ObjectIDAsHexString: true,
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}
	return client, nil
}

func NewMongoConversationStore(db *mongo.Database) *MongoConversationStore {
	return &MongoConversationStore{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

func (s *MongoConversationStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	_, err := s.conversations.InsertOne(ctx, conv)
	return err
}

func (s *MongoConversationStore) AppendMessage(ctx context.Context, msg *StoredMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().Unix()
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return err
	}
	_, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": msg.ConversationID},
		bson.M{"$set": bson.M{"updated_at": msg.CreatedAt}},
	)
	return err
}

// RecentTurns returns the last limit messages of a conversation in
// chronological order.
func (s *MongoConversationStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))
	cursor, err := s.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stored []StoredMessage
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, err
	}
	turns := make([]types.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		turns = append(turns, types.Message{
			Role:      stored[i].Role,
			Content:   stored[i].Content,
			CreatedAt: stored[i].CreatedAt,
		})
	}
	return turns, nil
}

func (s *MongoConversationStore) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{"conversation_id": id}); err != nil {
		return err
	}
	_, err := s.conversations.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
