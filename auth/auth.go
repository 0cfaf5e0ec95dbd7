package auth

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"

	"github.com/raid-guild/x402-tip-links/utils"
)

// Config configures API key authentication. At most one of StaticKey and DB may be set;
// with neither set requests are not authenticated.
type Config struct {
	StaticKey string
	DB        *sql.DB
}

// Authenticate authenticates the request.
func Authenticate(r *http.Request, c Config) error {

	// Get the API key from the request header
	providedKey := r.Header.Get("X-API-Key")

	// Check if the configuration is ambiguous
	if c.StaticKey != "" && c.DB != nil {
		return utils.NewStatusError(
			errors.New("both static API key and API key database are set"),
			http.StatusInternalServerError,
		)
	}

	// Check if the API key is required (static key)
	if c.StaticKey != "" {

		// Check if the provided key does not match the static key
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(c.StaticKey)) != 1 {
			return utils.NewStatusError(
				errors.New("unauthorized"),
				http.StatusUnauthorized,
			)
		}
	}

	// Check if the API key is required (dynamic key)
	if c.DB != nil {

		// Check if the provided key is empty
		if providedKey == "" {
			return utils.NewStatusError(
				errors.New("unauthorized"),
				http.StatusUnauthorized,
			)
		}

		// Check the API key exists in the database
		var apiKey string
		err := c.DB.QueryRowContext(
			r.Context(),
			"SELECT api_key FROM api_keys WHERE api_key = $1",
			providedKey,
		).Scan(&apiKey)

		// Check if the query returned a no rows error
		if errors.Is(err, sql.ErrNoRows) {
			return utils.NewStatusError(
				errors.New("unauthorized"),
				http.StatusUnauthorized,
			)
		}

		// Check if the query returned a different error
		if err != nil {
			return utils.NewStatusError(
				errors.New("failed to get key from database"),
				http.StatusInternalServerError,
			)
		}
	}

	return nil
}
