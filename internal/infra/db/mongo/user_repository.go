package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "villabook/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	col := db.Collection("users")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "line_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &UserRepository{col: col}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) ByLineID(ctx context.Context, lineID string) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"line_id": lineID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	doc := newUserDocument(u)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type userDocument struct {
	ID                string `bson:"_id"`
	LineID            string `bson:"line_id"`
	DisplayName       string `bson:"display_name"`
	PictureURL        string `bson:"picture_url"`
	StatusMessage     string `bson:"status_message"`
	IsFriend          bool   `bson:"is_friend"`
	FriendshipChanged bool   `bson:"friendship_changed"`
	PhoneNumber       string `bson:"phone_number"`
	Email             string `bson:"email"`
	CreatedAt         int64  `bson:"created_at"`
	LastLoginAt       int64  `bson:"last_login_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	return userDocument{
		ID:                string(u.ID),
		LineID:            u.LineID,
		DisplayName:       u.DisplayName,
		PictureURL:        u.PictureURL,
		StatusMessage:     u.StatusMessage,
		IsFriend:          u.IsFriend,
		FriendshipChanged: u.FriendshipChanged,
		PhoneNumber:       u.PhoneNumber,
		Email:             u.Email,
		CreatedAt:         u.CreatedAt.UnixMilli(),
		LastLoginAt:       u.LastLoginAt.UnixMilli(),
	}
}

func (d userDocument) toEntity() *domainuser.User {
	return &domainuser.User{
		ID:                domainuser.ID(d.ID),
		LineID:            d.LineID,
		DisplayName:       d.DisplayName,
		PictureURL:        d.PictureURL,
		StatusMessage:     d.StatusMessage,
		IsFriend:          d.IsFriend,
		FriendshipChanged: d.FriendshipChanged,
		PhoneNumber:       d.PhoneNumber,
		Email:             d.Email,
		CreatedAt:         timestampToTime(d.CreatedAt),
		LastLoginAt:       timestampToTime(d.LastLoginAt),
	}
}
