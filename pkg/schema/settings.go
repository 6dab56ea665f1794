package schema

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SettingsID is the fixed _id of the settings document. The unique _id index
// keeps concurrent first saves from creating a second document.
var SettingsID = bson.ObjectID{11: 1}

// SettingsCollection holds the tenant's single settings document.
type SettingsCollection struct {
	*Collection[Settings, *Settings]
}

func newSettingsCollection(db *mongo.Database) *SettingsCollection {
	return &SettingsCollection{newCollection[Settings, *Settings](db, SettingsCollectionName)}
}

// Current returns the clinic settings, or ErrNotFound if none were saved yet.
func (c *SettingsCollection) Current(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: SettingsID}}).Decode(&s); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// Save replaces the clinic settings, creating the document on first use.
func (c *SettingsCollection) Save(ctx context.Context, s *Settings) (*Settings, error) {
	s.normalize(true)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.stamp(c.now(), true)

	fields, err := setFields(s)
	if err != nil {
		return nil, err
	}

	saved, err := c.upsert(ctx, fields)
	if errors.Is(err, ErrDuplicate) {
		// Lost the insert race to a concurrent save; the document exists now.
		saved, err = c.upsert(ctx, fields)
	}
	return saved, err
}

func (c *SettingsCollection) upsert(ctx context.Context, fields bson.D) (*Settings, error) {
	res := c.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: SettingsID}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var saved Settings
	if err := res.Decode(&saved); err != nil {
		return nil, mapError(err)
	}
	return &saved, nil
}
