package rls

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithSpeakerSkipsNonPostgres(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return WithSpeaker(tx, 42)
	})
	assert.NoError(t, err)
}
