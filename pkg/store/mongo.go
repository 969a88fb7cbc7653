package store

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/page"
)

const backendMongo = "mongo"

// MongoCollection is the collection holding pages.
const MongoCollection = "pages"

// mongoPage is the stored form of a page. The document itself is kept as
// its JSON encoding so that block payloads round-trip unchanged.
type mongoPage struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	GridVersion int       `bson:"gridVersion"`
	Data        string    `bson:"data"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// MongoStore keeps pages in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// DialMongoStore connects to uri and uses the pages collection of database.
func DialMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo store requires a uri")
	}
	if database == "" {
		database = "gridpage"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storeErr(err, "connect mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (doc *page.Document, err error) {
	defer observe(ctx, backendMongo, "get", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return nil, err
	}

	var mp mongoPage
	err = s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mp)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "find page %q", id)
	}
	return decode(id, []byte(mp.Data))
}

func (s *MongoStore) Put(ctx context.Context, doc *page.Document) (err error) {
	defer observe(ctx, backendMongo, "put", time.Now(), &err)
	if err := checkPut(doc); err != nil {
		return err
	}

	data, err := encode(doc)
	if err != nil {
		return err
	}
	mp := mongoPage{
		ID:          doc.ID,
		Title:       doc.Title,
		GridVersion: doc.GridVersion,
		Data:        string(data),
		UpdatedAt:   doc.UpdatedAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, mp, options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "replace page %q", doc.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, backendMongo, "delete", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr(err, "delete page %q", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) (ids []string, err error) {
	defer observe(ctx, backendMongo, "list", time.Now(), &err)

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, storeErr(err, "list pages")
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, storeErr(err, "decode page id")
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(err, "list pages")
	}
	slices.Sort(ids)
	return ids, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
