package repository

import (
	"context"

	"impostorparty/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepo is the durable room record store: one document per room,
// keyed by code, carrying everything that must survive a match.
type RoomRepo interface {
	Save(ctx context.Context, rec *model.RoomRecord) error
	Load(ctx context.Context, code string) (*model.RoomRecord, error)
	Delete(ctx context.Context, code string) error
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{collection: db.Collection("rooms")}
}

func (r *roomRepo) Save(ctx context.Context, rec *model.RoomRecord) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"code": rec.Code},
		rec,
		options.Replace().SetUpsert(true))
	return err
}

func (r *roomRepo) Load(ctx context.Context, code string) (*model.RoomRecord, error) {
	var rec model.RoomRecord
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *roomRepo) Delete(ctx context.Context, code string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"code": code})
	return err
}
