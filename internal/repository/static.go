package repository

import (
	"context"

	"github.com/m2tx/toolchat/internal/model"
)

// StaticDirectoryRepository is an in-memory directory, used when no database is configured.
type StaticDirectoryRepository struct {
	companies     []model.Company
	collaborators []model.Collaborator
}

func NewStaticDirectoryRepository(companies []model.Company, collaborators []model.Collaborator) *StaticDirectoryRepository {
	return &StaticDirectoryRepository{companies: companies, collaborators: collaborators}
}

// NewSampleDirectoryRepository returns a static directory seeded with demo data.
func NewSampleDirectoryRepository() *StaticDirectoryRepository {
	return NewStaticDirectoryRepository(
		[]model.Company{
			{ID: "1", Name: "Company A"},
			{ID: "2", Name: "Company B"},
		},
		[]model.Collaborator{
			{ID: "1", Name: "John Smith", CompanyID: "1"},
			{ID: "2", Name: "Jane Smith", CompanyID: "1"},
			{ID: "3", Name: "Alex Johnson", CompanyID: "2"},
			{ID: "4", Name: "Maria Costa", CompanyID: "2"},
			{ID: "5", Name: "Sam Wilson", CompanyID: "2"},
		},
	)
}

func (r *StaticDirectoryRepository) ListCompanies(ctx context.Context) ([]model.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Company, len(r.companies))
	copy(out, r.companies)
	return out, nil
}

func (r *StaticDirectoryRepository) ListCollaborators(ctx context.Context, companyID string) ([]model.Collaborator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []model.Collaborator{}
	for _, c := range r.collaborators {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}
