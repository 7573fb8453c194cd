package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(db)
	ctx := context.Background()

	columns := []string{"id", "car_name", "car_type", "pay_per_day", "available", "updated_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vehicles\s+WHERE id`).
			WithArgs("veh-1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("veh-1", "Civic", "Sedan", 50.0, true, time.Now()))

		vehicle, err := repo.GetByID(ctx, "veh-1")
		require.NoError(t, err)
		assert.Equal(t, "Civic", vehicle.CarName)
		assert.Equal(t, 50.0, vehicle.PayPerDay)
		assert.True(t, vehicle.Available)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vehicles\s+WHERE id`).
			WithArgs("veh-missing").
			WillReturnRows(sqlmock.NewRows(columns))

		vehicle, err := repo.GetByID(ctx, "veh-missing")
		assert.ErrorIs(t, err, ErrVehicleNotFound)
		assert.Nil(t, vehicle)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vehicles`).
			WillReturnError(fmt.Errorf("timeout"))

		_, err := repo.GetByID(ctx, "veh-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrVehicleNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
