package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMealLogRepository_MarkConsumed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMealLogRepository(db)
	ctx := context.Background()

	t.Run("Row Matched", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "food_meal_logs" SET "is_consumed"=$1 WHERE id = $2 AND user_id = $3`)).
			WithArgs(true, 7, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.MarkConsumed(ctx, 7, 1)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Owner Leaves Row Alone", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "food_meal_logs" SET "is_consumed"=$1 WHERE id = $2 AND user_id = $3`)).
			WithArgs(true, 7, 2).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.MarkConsumed(ctx, 7, 2)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMealLogRepository_SumConsumed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMealLogRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"calories", "protein_g", "carbs_g", "fat_g"}).
		AddRow(520, 30.5, 60.2, 12.1)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_calories\), 0\) AS calories.* FROM "food_meal_logs" WHERE user_id = \$1 AND is_consumed = \$2`).
		WithArgs(1, true).
		WillReturnRows(rows)

	totals, err := repo.SumConsumed(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(520), totals.Calories)
	assert.InDelta(t, 30.5, totals.ProteinG, 0.001)
	assert.InDelta(t, 60.2, totals.CarbsG, 0.001)
	assert.InDelta(t, 12.1, totals.FatG, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
