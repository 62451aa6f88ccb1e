package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CreatedUsersCollection mirrors account creations for downstream consumers.
const CreatedUsersCollection = "created_users"

// CreatedUsersStream is the Redis stream receiving account creations.
const CreatedUsersStream = "users.created"

// CreatedUser is the record written for each new account. It never carries credentials.
type CreatedUser struct {
	UserID    string    `bson:"userId" json:"user_id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}

func createdRecord(u *User) CreatedUser {
	return CreatedUser{UserID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// MongoRecorder inserts created accounts into a separate collection.
type MongoRecorder struct {
	coll *mongo.Collection
}

func NewMongoRecorder(db *mongo.Database) *MongoRecorder {
	return &MongoRecorder{coll: db.Collection(CreatedUsersCollection)}
}

func (r *MongoRecorder) RecordCreated(ctx context.Context, u *User) error {
	if _, err := r.coll.InsertOne(ctx, createdRecord(u)); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToRecord, err)
	}
	return nil
}

// StreamAdder is the subset of the Redis client used by RedisRecorder.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisRecorder appends created accounts to a capped Redis stream.
type RedisRecorder struct {
	client StreamAdder
	stream string
	maxLen int64
}

// RedisRecorderOption configures RedisRecorder.
type RedisRecorderOption func(*RedisRecorder)

// WithStream overrides the stream name.
func WithStream(name string) RedisRecorderOption {
	return func(r *RedisRecorder) {
		if name != "" {
			r.stream = name
		}
	}
}

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(n int64) RedisRecorderOption {
	return func(r *RedisRecorder) { r.maxLen = n }
}

func NewRedisRecorder(client StreamAdder, opts ...RedisRecorderOption) *RedisRecorder {
	r := &RedisRecorder{client: client, stream: CreatedUsersStream, maxLen: 100_000}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) RecordCreated(ctx context.Context, u *User) error {
	rec := createdRecord(u)
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{
			"user_id":    rec.UserID,
			"name":       rec.Name,
			"email":      rec.Email,
			"created_at": rec.CreatedAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToRecord, err)
	}
	return nil
}

// MemoryRecorder keeps created accounts in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []CreatedUser
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) RecordCreated(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, createdRecord(u))
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *MemoryRecorder) Records() []CreatedUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CreatedUser(nil), r.records...)
}

var (
	_ Recorder = (*MongoRecorder)(nil)
	_ Recorder = (*RedisRecorder)(nil)
	_ Recorder = (*MemoryRecorder)(nil)
)
