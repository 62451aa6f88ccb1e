package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersCollection is the collection holding account documents.
const UsersCollection = "users"

// MongoStorage keeps accounts in a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoStorage binds the storage to db's users collection.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{coll: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index and the reset code lookup index.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "resetToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStorage) CreateUser(ctx context.Context, u *User) error {
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStorage) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStorage) SetToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, bson.M{"_id": id}, bson.M{"token": token}, ErrUserNotFound)
}

func (s *MongoStorage) SetTokens(ctx context.Context, id, token, refreshToken string) error {
	return s.updateOne(ctx, bson.M{"_id": id}, bson.M{"token": token, "refreshToken": refreshToken}, ErrUserNotFound)
}

func (s *MongoStorage) RotateTokens(ctx context.Context, id, current, token, refreshToken string) error {
	if current == "" {
		return ErrTokenMismatch
	}
	return s.updateOne(ctx,
		bson.M{"_id": id, "refreshToken": current},
		bson.M{"token": token, "refreshToken": refreshToken},
		ErrTokenMismatch,
	)
}

func (s *MongoStorage) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	if upd.Empty() {
		return s.GetUserByID(ctx, id)
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password"] = *upd.PasswordHash
	}
	if upd.AvatarURL != nil {
		set["avatarURL"] = *upd.AvatarURL
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, s.setUpdate(set), ErrUserNotFound)
}

func (s *MongoStorage) SetTheme(ctx context.Context, id string, theme Theme) (*User, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, s.setUpdate(bson.M{"theme": theme}), ErrUserNotFound)
}

func (s *MongoStorage) SetResetToken(ctx context.Context, email, code string, expiresAt time.Time) (*User, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"email": email},
		s.setUpdate(bson.M{"resetToken": code, "resetTokenExpiration": expiresAt}),
		ErrUserNotFound,
	)
}

func (s *MongoStorage) ConsumeResetToken(ctx context.Context, code string, now time.Time, passwordHash string) (*User, error) {
	if code == "" {
		return nil, ErrResetTokenInvalid
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": s.now()},
		"$unset": bson.M{"resetToken": "", "resetTokenExpiration": ""},
	}
	return s.findOneAndUpdate(ctx,
		bson.M{"resetToken": code, "resetTokenExpiration": bson.M{"$gt": now}},
		update,
		ErrResetTokenInvalid,
	)
}

func (s *MongoStorage) setUpdate(fields bson.M) bson.M {
	fields["updatedAt"] = s.now()
	return bson.M{"$set": fields}
}

func (s *MongoStorage) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *MongoStorage) updateOne(ctx context.Context, filter, fields bson.M, notMatched error) error {
	res, err := s.coll.UpdateOne(ctx, filter, s.setUpdate(fields))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return notMatched
	}
	return nil
}

func (s *MongoStorage) findOneAndUpdate(ctx context.Context, filter, update bson.M, notMatched error) (*User, error) {
	var u User
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, notMatched
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

var _ Storage = (*MongoStorage)(nil)
