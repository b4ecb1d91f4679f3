package rls

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// WithSpeaker scopes the current transaction to one speaker for the
// row-level-security policies on speaker-owned tables. It is a no-op on
// dialects without session variables.
func WithSpeaker(tx *gorm.DB, speakerID snowflake.ID) error {
	if tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(
		"SELECT set_config('app.current_speaker_id', ?, true)",
		speakerID.String(),
	).Error
}
