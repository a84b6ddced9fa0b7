package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"typingspeed/internal/database"
	"typingspeed/internal/pkg/logging"
)

// NewDB returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), dsn, logging.Discard())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}
