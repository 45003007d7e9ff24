package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/m2tx/toolchat/internal/model"
)

const (
	DefaultCompaniesCollection     = "companies"
	DefaultCollaboratorsCollection = "collaborators"
)

// MongoDirectoryRepository implements DirectoryRepository using MongoDB.
type MongoDirectoryRepository struct {
	companies     *mongo.Collection
	collaborators *mongo.Collection
}

// NewMongoDirectoryRepository creates a new MongoDirectoryRepository over the
// "companies" and "collaborators" collections of db.
func NewMongoDirectoryRepository(db *mongo.Database) *MongoDirectoryRepository {
	return &MongoDirectoryRepository{
		companies:     db.Collection(DefaultCompaniesCollection),
		collaborators: db.Collection(DefaultCollaboratorsCollection),
	}
}

func (r *MongoDirectoryRepository) ListCompanies(ctx context.Context) ([]model.Company, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.companies.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find companies: %w", err)
	}

	companies := []model.Company{}
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("repository: decode companies: %w", err)
	}

	return companies, nil
}

func (r *MongoDirectoryRepository) ListCollaborators(ctx context.Context, companyID string) ([]model.Collaborator, error) {
	filter := bson.M{"company_id": companyID}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collaborators.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find collaborators of %q: %w", companyID, err)
	}

	collaborators := []model.Collaborator{}
	if err := cursor.All(ctx, &collaborators); err != nil {
		return nil, fmt.Errorf("repository: decode collaborators of %q: %w", companyID, err)
	}

	return collaborators, nil
}
