package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadColumns = []string{"id", "contact_id", "pipeline_id", "stage_id", "owner_id", "created_at"}

func TestPipelineRepository_CreateOrGetLead_Creates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO leads`).WithArgs(2, 9, 4, 7).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(1, 2, 9, 4, 7, time.Now()))

	repo := &PipelineRepository{DB: db}
	lead, created, err := repo.CreateOrGetLead(context.Background(), 2, 9, 4, 7)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, lead.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineRepository_CreateOrGetLead_ReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO leads`).WithArgs(2, 9, 4, 7).WillReturnRows(sqlmock.NewRows(leadColumns))
	mock.ExpectQuery(`FROM leads WHERE contact_id=\$1 AND pipeline_id=\$2`).WithArgs(2, 9).
		WillReturnRows(sqlmock.NewRows(leadColumns).AddRow(3, 2, 9, 1, 0, time.Now()))

	repo := &PipelineRepository{DB: db}
	lead, created, err := repo.CreateOrGetLead(context.Background(), 2, 9, 4, 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, lead.ID)
	assert.Equal(t, 1, lead.StageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineRepository_StageOf(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM pipeline_positions`).WithArgs(2, 9).
		WillReturnRows(sqlmock.NewRows([]string{"stage_id"}).AddRow(4))
	mock.ExpectQuery(`FROM pipeline_positions`).WithArgs(3, 9).
		WillReturnRows(sqlmock.NewRows([]string{"stage_id"}))

	repo := &PipelineRepository{DB: db}
	stage, ok, err := repo.StageOf(context.Background(), 2, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, stage)

	_, ok, err = repo.StageOf(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipelineRepository_SetStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`ON CONFLICT \(contact_id, pipeline_id\) DO UPDATE`).WithArgs(2, 9, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PipelineRepository{DB: db}
	require.NoError(t, repo.SetStage(context.Background(), 2, 9, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
