package functions

import (
	"context"
	"fmt"

	"github.com/m2tx/toolchat/internal/agent"
	"github.com/m2tx/toolchat/internal/repository"
)

func CreateCompanyFunctionDeclaration(repo repository.DirectoryRepository) *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        "get_companies",
		Description: "Lists the companies the user has access to.",
		FunctionCall: func(ctx context.Context, args map[string]any) (any, error) {
			companies, err := repo.ListCompanies(ctx)
			if err != nil {
				return nil, fmt.Errorf("get_companies: %w", err)
			}
			return map[string]any{"companies": companies}, nil
		},
	}
}

func CreateCollaboratorsFunctionDeclaration(repo repository.DirectoryRepository) *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        "get_collaborators",
		Description: "Lists the collaborators of a company.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"company_id": map[string]any{
					"type":        "string",
					"description": "The company ID, as returned by get_companies",
				},
			},
			"required": []string{"company_id"},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (any, error) {
			companyID, ok := args["company_id"].(string)
			if !ok || companyID == "" {
				return nil, fmt.Errorf("get_collaborators: company_id argument is required")
			}

			collaborators, err := repo.ListCollaborators(ctx, companyID)
			if err != nil {
				return nil, fmt.Errorf("get_collaborators: %w", err)
			}
			return map[string]any{"collaborators": collaborators}, nil
		},
	}
}
