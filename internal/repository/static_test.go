package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleDirectory_ListCompanies(t *testing.T) {
	r := NewSampleDirectoryRepository()

	companies, err := r.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	require.Equal(t, "Company A", companies[0].Name)

	// callers get their own copy
	companies[0].Name = "changed"
	again, err := r.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Company A", again[0].Name)
}

func TestSampleDirectory_ListCollaborators(t *testing.T) {
	r := NewSampleDirectoryRepository()

	tests := []struct {
		companyID string
		want      int
	}{
		{companyID: "1", want: 2},
		{companyID: "2", want: 3},
		{companyID: "99", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.companyID, func(t *testing.T) {
			got, err := r.ListCollaborators(context.Background(), tt.companyID)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Len(t, got, tt.want)
			for _, c := range got {
				require.Equal(t, tt.companyID, c.CompanyID)
			}
		})
	}
}

func TestStaticDirectory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewSampleDirectoryRepository()
	_, err := r.ListCompanies(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = r.ListCollaborators(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryRepositoryImplementations(t *testing.T) {
	var _ DirectoryRepository = (*StaticDirectoryRepository)(nil)
	var _ DirectoryRepository = (*MongoDirectoryRepository)(nil)
}
