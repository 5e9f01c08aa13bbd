package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

func (s *MongoStore) CreateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	_, err := s.db.Collection(store.CollectionBootcamps).InsertOne(ctx, b)
	return writeErr(err)
}

func (s *MongoStore) GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error) {
	var b model.Bootcamp
	if err := findOne(ctx, s.db.Collection(store.CollectionBootcamps), id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MongoStore) UpdateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	return replaceOne(ctx, s.db.Collection(store.CollectionBootcamps), b.ID, b)
}

func (s *MongoStore) UpdateBootcampPhoto(ctx context.Context, id, photo string) error {
	res, err := s.db.Collection(store.CollectionBootcamps).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "photo", Value: photo}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteBootcamp removes the bootcamp's courses first so a failure part way
// never leaves courses pointing at a missing bootcamp.
func (s *MongoStore) DeleteBootcamp(ctx context.Context, id string) error {
	if _, err := s.GetBootcamp(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.Collection(store.CollectionCourses).DeleteMany(ctx, bson.D{{Key: "bootcamp", Value: id}}); err != nil {
		return fmt.Errorf("delete courses of bootcamp %s: %w", id, err)
	}
	return deleteOne(ctx, s.db.Collection(store.CollectionBootcamps), id)
}

func (s *MongoStore) BootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	filter := bson.D{{Key: "location", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{lng, lat}, radius}},
	}}}}}
	cur, err := s.db.Collection(store.CollectionBootcamps).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	var out []*model.Bootcamp
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bootcamps: %w", err)
	}
	return out, nil
}
