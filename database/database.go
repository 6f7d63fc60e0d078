package database

import (
	"context"

	"github.com/tieubaoca/lawchat-be/types"
)

// VectorDatabase defines the interface for the external vector index.
type VectorDatabase interface {
	// EnsureCollection creates the collection if it does not exist and pins
	// the expected embedding dimension. This is the only implicit resource
	// creation in the pipeline.
	EnsureCollection(ctx context.Context, dimension int) error
	// BatchUpsert writes chunk/vector pairs. Ids are derived from content so
	// re-ingesting identical content overwrites instead of duplicating.
	BatchUpsert(ctx context.Context, chunks []types.DocumentChunk, vectors [][]float32) error
	// Query returns the top-k most similar chunks, ordered by descending score.
	Query(ctx context.Context, vector []float32, limit int) ([]types.RetrievedDoc, error)
	// Stats reports the number of stored entries.
	Stats(ctx context.Context) (int64, error)
	DeleteCollection(ctx context.Context) error
}

// Conversation groups the messages of one chat session.
type Conversation struct {
	ID        string `bson:"_id" json:"id"`
	Title     string `bson:"title" json:"title"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
	UpdatedAt int64  `bson:"updated_at" json:"updated_at"`
}

// StoredMessage is one persisted conversation turn. Assistant messages
// carry the enriched response payload and a response version discriminator
// so legacy messages can be told apart.
type StoredMessage struct {
	ID              string                       `bson:"_id" json:"id"`
	ConversationID  string                       `bson:"conversation_id" json:"conversation_id"`
	Role            string                       `bson:"role" json:"role"`
	Content         string                       `bson:"content" json:"content"`
	Sources         []types.EnhancedSource       `bson:"sources,omitempty" json:"sources,omitempty"`
	Citations       []types.Citation             `bson:"citations,omitempty" json:"citations,omitempty"`
	FollowUps       []string                     `bson:"follow_ups,omitempty" json:"follow_ups,omitempty"`
	Metrics         *types.ResponseMetrics       `bson:"metrics,omitempty" json:"metrics,omitempty"`
	Recommendations []types.LawyerRecommendation `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	ResponseVersion int                          `bson:"response_version" json:"response_version"`
	CreatedAt       int64                        `bson:"created_at" json:"created_at"`
}

// ConversationStore defines the interface for conversation persistence.
// The pipeline core consumes this, it does not own it.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	AppendMessage(ctx context.Context, msg *StoredMessage) error
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]types.Message, error)
	DeleteConversation(ctx context.Context, id string) error
}
