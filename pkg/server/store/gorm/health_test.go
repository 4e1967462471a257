package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/db"
)

func TestCheckConnectivity(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		errMsg string
	}{
		{name: "reachable"},
		{name: "unreachable", err: errors.New("connection refused"), errMsg: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = mockDB.Close() }()
			gormDB, err := db.Open(postgres.New(postgres.Config{Conn: mockDB, PreferSimpleProtocol: true}), false)
			require.NoError(t, err)

			exec := mock.ExpectExec(`SELECT 1`)
			if tt.err != nil {
				exec.WillReturnError(tt.err)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err = NewHealthStore(gormDB).CheckConnectivity(context.Background())
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.errMsg)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
