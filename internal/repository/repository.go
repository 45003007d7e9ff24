package repository

import (
	"context"

	"github.com/m2tx/toolchat/internal/model"
)

// DirectoryRepository serves the company directory behind the company tools.
type DirectoryRepository interface {
	// ListCompanies returns every company the user can see.
	ListCompanies(ctx context.Context) ([]model.Company, error)

	// ListCollaborators returns the collaborators of one company.
	// Returns an empty slice, not an error, for an unknown company.
	ListCollaborators(ctx context.Context, companyID string) ([]model.Collaborator, error)
}
