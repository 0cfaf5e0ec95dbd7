package storage

import (
	"strings"

	"github.com/google/uuid"
)

const tipIDPrefix = "tip_"

// NewTipID returns a random tip id: the prefix followed by the 128 bits of a v4 UUID in hex.
func NewTipID() string {
	return tipIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
