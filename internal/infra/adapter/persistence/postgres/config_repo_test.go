package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"isdnews/internal/infra/adapter/persistence/postgres"
)

func TestConfigRepo_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		dbErr     error
		wantValue string
		wantFound bool
		wantErr   bool
	}{
		{"trimmed hit", sqlmock.NewRows([]string{"value"}).AddRow("  https://hook.test/x \n"), nil, "https://hook.test/x", true, false},
		{"miss", sqlmock.NewRows([]string{"value"}), nil, "", false, false},
		{"store error", nil, errors.New("conn reset"), "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer func() { _ = db.Close() }()

			exp := mock.ExpectQuery(`FROM system_configs`).WithArgs("teams_webhook", "dev")
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			value, found, err := postgres.NewConfigRepo(db).Lookup(context.Background(), "teams_webhook", "dev")
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}
