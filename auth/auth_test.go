package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/raid-guild/x402-tip-links/utils"
)

func request(apiKey string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/create-tip-link", nil)
	if apiKey != "" {
		r.Header.Set("X-API-Key", apiKey)
	}
	return r
}

func setupMockDatabase(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func TestAuthenticate(t *testing.T) {

	t.Run("no api key required and no api key provided", func(t *testing.T) {
		if err := Authenticate(request(""), Config{}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("no api key required and irrelevant api key provided", func(t *testing.T) {
		if err := Authenticate(request("test-api-key"), Config{}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("static api key required and valid api key provided", func(t *testing.T) {
		if err := Authenticate(request("valid-api-key"), Config{StaticKey: "valid-api-key"}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("static api key required and invalid api key provided", func(t *testing.T) {
		err := Authenticate(request("invalid-api-key"), Config{StaticKey: "valid-api-key"})
		if utils.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %v", http.StatusUnauthorized, err)
		}
	})

	t.Run("static api key required and no api key provided", func(t *testing.T) {
		err := Authenticate(request(""), Config{StaticKey: "valid-api-key"})
		if utils.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %v", http.StatusUnauthorized, err)
		}
	})

	t.Run("database api key required and valid api key provided", func(t *testing.T) {
		db, mock := setupMockDatabase(t)

		rows := sqlmock.NewRows([]string{"api_key"}).AddRow("valid-api-key")
		mock.ExpectQuery("SELECT api_key FROM api_keys WHERE api_key = \\$1").
			WithArgs("valid-api-key").
			WillReturnRows(rows)

		if err := Authenticate(request("valid-api-key"), Config{DB: db}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("database api key required and invalid api key provided", func(t *testing.T) {
		db, mock := setupMockDatabase(t)

		mock.ExpectQuery("SELECT api_key FROM api_keys WHERE api_key = \\$1").
			WithArgs("invalid-api-key").
			WillReturnError(sql.ErrNoRows)

		err := Authenticate(request("invalid-api-key"), Config{DB: db})
		if utils.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %v", http.StatusUnauthorized, err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("database api key required and no api key provided", func(t *testing.T) {
		db, _ := setupMockDatabase(t)

		err := Authenticate(request(""), Config{DB: db})
		if utils.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %v", http.StatusUnauthorized, err)
		}
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := setupMockDatabase(t)

		mock.ExpectQuery("SELECT api_key FROM api_keys WHERE api_key = \\$1").
			WithArgs("valid-api-key").
			WillReturnError(errors.New("connection reset"))

		err := Authenticate(request("valid-api-key"), Config{DB: db})
		if utils.StatusOf(err) != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %v", http.StatusInternalServerError, err)
		}
	})

	t.Run("static api key and database both configured", func(t *testing.T) {
		db, _ := setupMockDatabase(t)

		err := Authenticate(request("valid-api-key"), Config{StaticKey: "valid-api-key", DB: db})
		if utils.StatusOf(err) != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %v", http.StatusInternalServerError, err)
		}
	})
}
