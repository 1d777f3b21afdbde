package repository

import (
	"fmt"

	"referral-chat/internal/domain/conversation"
	"referral-chat/internal/domain/message"

	"gorm.io/gorm"
)

// InitSchema handles the database schema migration: extensions, Gorm
// auto-migration, and the foreign keys Gorm cannot express across the
// circular conversations<->messages reference.
func InitSchema(db *gorm.DB) error {
	// Creating extensions usually requires superuser privileges. If this
	// fails, ensure the extension is pre-installed.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("failed to create extension: %w", err)
	}

	if err := db.AutoMigrate(
		&conversation.Conversation{},
		&conversation.Participant{},
		&conversation.UnreadMarker{},
		&message.Message{},
	); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	constraints := []string{
		`DO $$ BEGIN
			ALTER TABLE conversation_participants
				ADD CONSTRAINT fk_participants_conversation
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE;
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE conversation_unread_by
				ADD CONSTRAINT fk_unread_by_conversation
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE;
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE messages
				ADD CONSTRAINT fk_messages_conversation
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE;
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			ALTER TABLE conversations
				ADD CONSTRAINT fk_conversations_last_message
				FOREIGN KEY (last_message_id) REFERENCES messages(id) ON DELETE SET NULL;
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
	}
	for _, c := range constraints {
		if err := db.Exec(c).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}

	return nil
}
