package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

func (s *MongoStore) CreateCourse(ctx context.Context, c *model.Course) error {
	_, err := s.db.Collection(store.CollectionCourses).InsertOne(ctx, c)
	return writeErr(err)
}

func (s *MongoStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	if err := findOne(ctx, s.db.Collection(store.CollectionCourses), id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error) {
	cur, err := s.db.Collection(store.CollectionCourses).Find(ctx,
		bson.D{{Key: "bootcamp", Value: bootcampID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := []*model.Course{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return out, nil
}

func (s *MongoStore) UpdateCourse(ctx context.Context, c *model.Course) error {
	return replaceOne(ctx, s.db.Collection(store.CollectionCourses), c.ID, c)
}

func (s *MongoStore) DeleteCourse(ctx context.Context, id string) error {
	return deleteOne(ctx, s.db.Collection(store.CollectionCourses), id)
}

func (s *MongoStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.Collection(store.CollectionUsers).InsertOne(ctx, u)
	return writeErr(err)
}
