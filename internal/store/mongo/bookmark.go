package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
)

// CollectionBookmarks is the collection holding bookmark documents.
const CollectionBookmarks = "bookmarks"

// Gateway is the subset of the connection provider the store needs.
type Gateway interface {
	Collection(ctx context.Context, name string) (*mongo.Collection, error)
	Ping(ctx context.Context) error
}

// bookmarkDoc is the stored shape. Field names match documents written
// before the version field existed, which decode with Version 0.
type bookmarkDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	URL       string             `bson:"url"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty"`
	Version   int64              `bson:"version,omitempty"`
}

func (d bookmarkDoc) toDomain() domain.Bookmark {
	b := domain.Bookmark{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		URL:       d.URL,
		Tags:      d.Tags,
		CreatedAt: d.CreatedAt,
		Version:   d.Version,
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if d.UpdatedAt != nil {
		b.UpdatedAt = *d.UpdatedAt
	}
	return b
}

// Store implements domain.Repository on a MongoDB collection.
type Store struct {
	gw         Gateway
	collection string
}

var _ domain.Repository = (*Store)(nil)

// NewStore creates a bookmark store on the default collection.
func NewStore(gw Gateway) *Store {
	return &Store{gw: gw, collection: CollectionBookmarks}
}

// NewStoreWithCollection creates a bookmark store on a specific collection.
func NewStoreWithCollection(gw Gateway, collection string) *Store {
	return &Store{gw: gw, collection: collection}
}

func (s *Store) coll(ctx context.Context) (*mongo.Collection, error) {
	return s.gw.Collection(ctx, s.collection)
}

// List returns every bookmark sorted by name, then _id.
func (s *Store) List(ctx context.Context) ([]domain.Bookmark, error) {
	c, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := c.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookmarks: %w", err)
	}

	var docs []bookmarkDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(docs))
	for _, d := range docs {
		bookmarks = append(bookmarks, d.toDomain())
	}
	return bookmarks, nil
}

// Insert stores b under a fresh ObjectID.
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	c, err := s.coll(ctx)
	if err != nil {
		return domain.Bookmark{}, err
	}

	doc := bookmarkDoc{
		ID:        primitive.NewObjectID(),
		Name:      b.Name,
		URL:       b.URL,
		Tags:      b.Tags,
		CreatedAt: b.CreatedAt,
		Version:   1,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	if _, err := c.InsertOne(ctx, doc); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces name, url and tags of the matching document.
// IDs that are not valid ObjectIDs cannot match anything and yield ErrNotFound.
func (s *Store) Update(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	oid, err := primitive.ObjectIDFromHex(b.ID)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", b.ID, domain.ErrNotFound)
	}

	c, err := s.coll(ctx)
	if err != nil {
		return domain.Bookmark{}, err
	}

	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}

	filter := bson.M{"_id": oid}
	if b.Version > 0 {
		filter["version"] = b.Version
	}
	update := bson.M{
		"$set": bson.M{
			"name":      b.Name,
			"url":       b.URL,
			"tags":      tags,
			"updatedAt": b.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookmarkDoc
	err = c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Bookmark{}, fmt.Errorf("failed to update bookmark: %w", err)
	}

	if b.Version > 0 {
		n, cerr := c.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return domain.Bookmark{}, fmt.Errorf("failed to check bookmark: %w", cerr)
		}
		if n > 0 {
			return domain.Bookmark{}, fmt.Errorf("bookmark %s at version %d: %w", b.ID, b.Version, domain.ErrConflict)
		}
	}
	return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", b.ID, domain.ErrNotFound)
}

// Delete removes the matching document. Unknown or malformed IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	c, err := s.coll(ctx)
	if err != nil {
		return err
	}

	if _, err := c.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// Ping checks the database behind the gateway.
func (s *Store) Ping(ctx context.Context) error {
	return s.gw.Ping(ctx)
}
