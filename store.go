package biolink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ContentStore is the read/merge contract over the singleton content
// document. Implementations must be safe for concurrent use.
type ContentStore interface {
	// GetContent fetches the singleton document. When none exists the
	// built-in default is returned without being written back.
	GetContent(ctx context.Context) (Content, error)
	// MergeContent shallow-merges the patch into the stored document,
	// creating it if absent and stamping updatedAt.
	MergeContent(ctx context.Context, patch ContentPatch) error
}

const contentCollection = "content"

// Store is the MongoDB-backed ContentStore.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore connects to MongoDB at uri and pings it before returning.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(contentCollection),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) GetContent(ctx context.Context) (Content, error) {
	var doc Content
	err := s.coll.FindOne(ctx, bson.D{{Key: "id", Value: ContentID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DefaultContent(), nil
		}
		return Content{}, fmt.Errorf("get content: %w", err)
	}
	return doc, nil
}

func (s *Store) MergeContent(ctx context.Context, patch ContentPatch) error {
	_, err := s.coll.UpdateOne(
		ctx,
		bson.D{{Key: "id", Value: ContentID}},
		bson.D{{Key: "$set", Value: patch.setDoc(time.Now().UTC())}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("merge content: %w", err)
	}
	return nil
}

// setDoc builds the $set document for the patch: only provided sections
// appear, plus the updatedAt stamp. Fields absent from the patch are
// never touched by the update.
func (p ContentPatch) setDoc(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Texts != nil {
		set["texts"] = *p.Texts
	}
	if p.Links != nil {
		set["links"] = *p.Links
	}
	if p.Sidebar != nil {
		set["sidebar"] = *p.Sidebar
	}
	if p.Socials != nil {
		set["socials"] = *p.Socials
	}
	if p.CustomPages != nil {
		set["customPages"] = *p.CustomPages
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	if p.Config != nil {
		set["config"] = *p.Config
	}
	return set
}
