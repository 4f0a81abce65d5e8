package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/ranking"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the feed and trending queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author.id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

// CreatePost inserts a new post. ID and timestamps are assigned when empty.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	// $addToSet and $size fail on null arrays.
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByIDs retrieves the given posts, newest first. Missing ids are skipped.
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID string) (bool, int, error) {
	filter := bson.M{"_id": postID, "likes": bson.M{"$ne": userID}}
	update := bson.M{"$addToSet": bson.M{"likes": userID}}
	return r.toggleLike(ctx, postID, filter, update)
}

func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, int, error) {
	filter := bson.M{"_id": postID, "likes": userID}
	update := bson.M{"$pull": bson.M{"likes": userID}}
	return r.toggleLike(ctx, postID, filter, update)
}

// toggleLike applies update only when filter matches, so a no-op toggle is
// reported as unchanged instead of being absorbed.
func (r *MongoPostRepository) toggleLike(ctx context.Context, postID string, filter, update bson.M) (bool, int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var out struct {
		Likes []string `bson:"likes"`
	}
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return true, len(out.Likes), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, err
	}

	current, err := r.GetPostByID(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	return false, current.LikeCount(), nil
}

func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) ListRecent(ctx context.Context, f PostFilter, skip, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	findOptions := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, postFilter(f), findOptions)
}

func (r *MongoPostRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, postFilter(f))
}

func (r *MongoPostRepository) Sample(ctx context.Context, f PostFilter, n int) ([]models.Post, error) {
	if n <= 0 {
		return []models.Post{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: postFilter(f)}},
		{{Key: "$sample", Value: bson.M{"size": n}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *MongoPostRepository) Search(ctx context.Context, m *ranking.Matcher, f PostFilter, skip, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	titleMatch := bson.M{"$regexMatch": bson.M{"input": "$title", "regex": m.Pattern(), "options": "i"}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: searchFilter(m, f)}},
		{{Key: "$addFields", Value: bson.M{
			"_tier": bson.M{"$cond": bson.A{titleMatch, ranking.TierTitle, ranking.TierBody}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_tier", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(skip)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{"_tier": 0}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *MongoPostRepository) CountSearch(ctx context.Context, m *ranking.Matcher, f PostFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, searchFilter(m, f))
}

func (r *MongoPostRepository) ListPopular(ctx context.Context, skip, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	size := func(field string) bson.M {
		return bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}}
	}
	score := bson.M{"$add": bson.A{
		bson.M{"$multiply": bson.A{size("likes"), ranking.WeightLikes}},
		bson.M{"$multiply": bson.A{size("comments"), ranking.WeightComments}},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"_score": score}}},
		{{Key: "$sort", Value: bson.D{{Key: "_score", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(skip)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{"_score": 0}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *MongoPostRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Post, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func postFilter(f PostFilter) bson.M {
	filter := bson.M{}
	author := bson.M{}
	if f.Authors != nil {
		author["$in"] = f.Authors
	}
	if len(f.ExcludeAuthors) > 0 {
		author["$nin"] = f.ExcludeAuthors
	}
	if len(author) > 0 {
		filter["author.id"] = author
	}
	if !f.CreatedBefore.IsZero() {
		filter["created_at"] = bson.M{"$lte": f.CreatedBefore}
	}
	return filter
}

func searchFilter(m *ranking.Matcher, f PostFilter) bson.M {
	filter := postFilter(f)
	re := primitive.Regex{Pattern: m.Pattern(), Options: "i"}
	filter["$or"] = bson.A{
		bson.M{"title": re},
		bson.M{"body": re},
	}
	return filter
}
