package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
)

type credentialDocument struct {
	UserID       string    `bson:"user_id"`
	Token        string    `bson:"token"`
	RefreshToken string    `bson:"refresh_token"`
	TokenExpiry  time.Time `bson:"token_expiry"`
	Scopes       []string  `bson:"scopes,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(database *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: database.Collection("calendar_credentials")}
}

func (r *CredentialRepository) GetByUser(ctx context.Context, userID string) (*models.CalendarCredentials, error) {
	var doc credentialDocument
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.CalendarCredentials{
		UserID:       doc.UserID,
		Token:        doc.Token,
		RefreshToken: doc.RefreshToken,
		TokenExpiry:  doc.TokenExpiry,
		Scopes:       doc.Scopes,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (r *CredentialRepository) Upsert(ctx context.Context, creds *models.CalendarCredentials) error {
	now := time.Now().UTC()
	creds.UpdatedAt = now
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}

	update := bson.M{
		"$set": bson.M{
			"token":         creds.Token,
			"refresh_token": creds.RefreshToken,
			"token_expiry":  creds.TokenExpiry,
			"scopes":        creds.Scopes,
			"updated_at":    creds.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"user_id":    creds.UserID,
			"created_at": creds.CreatedAt,
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"user_id": creds.UserID}, update,
		options.Update().SetUpsert(true))
	return err
}
