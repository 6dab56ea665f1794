package schema

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// DefaultListLimit applies when ListOptions.Limit is zero.
	DefaultListLimit = 50
	// MaxListLimit caps ListOptions.Limit.
	MaxListLimit = 500
)

// document is implemented by the pointer types of every model.
type document[T any] interface {
	*T
	Validate() error
	normalize(created bool)
	id() bson.ObjectID
	setID(bson.ObjectID)
	stamp(now time.Time, created bool)
	activeFilter() bson.E
	archiveUpdate() bson.D
}

// ListOptions controls paging and archived record visibility.
type ListOptions struct {
	Limit           int
	Skip            int
	IncludeArchived bool
}

// Collection is a typed handle to one collection of a tenant database.
type Collection[T any, P document[T]] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func newCollection[T any, P document[T]](db *mongo.Database, name string) *Collection[T, P] {
	return &Collection[T, P]{
		coll: db.Collection(name),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Name returns the collection name.
func (c *Collection[T, P]) Name() string { return c.coll.Name() }

// Database returns the name of the tenant database the collection belongs to.
func (c *Collection[T, P]) Database() string { return c.coll.Database().Name() }

// Create validates doc, fills defaults and timestamps, and inserts it.
// Any id already set on doc is replaced by a generated one, which is
// written back to doc.
func (c *Collection[T, P]) Create(ctx context.Context, doc P) error {
	doc.normalize(true)
	if err := doc.Validate(); err != nil {
		return err
	}

	now := c.now()
	doc.stamp(now, true)
	doc.setID(bson.NewObjectID())

	_, err := c.coll.InsertOne(ctx, doc)
	return mapError(err)
}

// Get returns the document with the given hex id.
func (c *Collection[T, P]) Get(ctx context.Context, id string) (P, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc := P(new(T))
	if err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc, nil
}

// List returns documents newest first. Archived documents are skipped
// unless opts.IncludeArchived is set.
func (c *Collection[T, P]) List(ctx context.Context, opts ListOptions) ([]P, error) {
	filter := bson.D{}
	if active := P(new(T)).activeFilter(); !opts.IncludeArchived && active.Key != "" {
		filter = append(filter, active)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(max(opts.Skip, 0)))

	cur, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, mapError(err)
	}

	docs := make([]P, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	return docs, nil
}

// Update sets every field present in doc on the stored document and returns
// the result. Fields left empty in doc keep their stored values; createdAt
// never changes.
func (c *Collection[T, P]) Update(ctx context.Context, id string, doc P) (P, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc.normalize(false)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.setID(oid)
	doc.stamp(c.now(), false)

	fields, err := setFields(doc)
	if err != nil {
		return nil, err
	}
	return c.findAndSet(ctx, oid, fields)
}

// Archive soft-deletes the document: patients and staff are deactivated,
// appointments are cancelled. Settings cannot be archived.
func (c *Collection[T, P]) Archive(ctx context.Context, id string) (P, error) {
	fields := P(new(T)).archiveUpdate()
	if fields == nil {
		return nil, ErrArchiveUnsupported
	}

	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields = append(fields, bson.E{Key: "updatedAt", Value: c.now()})
	return c.findAndSet(ctx, oid, fields)
}

func (c *Collection[T, P]) findAndSet(ctx context.Context, oid bson.ObjectID, fields bson.D) (P, error) {
	res := c.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	doc := P(new(T))
	if err := res.Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc, nil
}

// setFields marshals doc into a $set document without the immutable fields.
func setFields(doc any) (bson.D, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var all bson.D
	if err := bson.Unmarshal(raw, &all); err != nil {
		return nil, err
	}

	fields := make(bson.D, 0, len(all))
	for _, e := range all {
		if e.Key == "_id" || e.Key == "createdAt" {
			continue
		}
		fields = append(fields, e)
	}
	return fields, nil
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
