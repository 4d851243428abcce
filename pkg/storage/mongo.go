package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/report"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "klumpen"

	collectionName = "analyses"
)

// MongoStore keeps analyses in the "analyses" collection.
//
// Module paths contain dots, which MongoDB does not allow in field names, so
// the analysis is stored as an opaque JSON payload next to the summary
// fields that List projects.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Summary `bson:",inline"`
	Payload []byte `bson:"payload"`
}

// NewMongoStore connects to uri, verifies the connection and ensures the
// listing index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, a *report.Analysis) error {
	if err := checkSave(a); err != nil {
		return err
	}
	payload, err := report.MarshalAnalysis(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	doc := mongoDoc{Summary: SummaryOf(a), Payload: payload}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save analysis %s", a.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*report.Analysis, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load analysis %s", id)
	}
	return report.UnmarshalAnalysis(doc.Payload)
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"payload": 0})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list analyses")
	}
	var list []Summary
	if err := cur.All(ctx, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode analyses")
	}
	return list, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete analysis %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
