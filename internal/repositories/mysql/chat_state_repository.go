package mysql

import (
	"chat-relay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatStateRepository struct {
	db *gorm.DB
}

func NewChatStateRepository(db *gorm.DB) *ChatStateRepository {
	return &ChatStateRepository{db}
}

// Upsert records the user's read progress for a chat, keeping the highest
// message id seen.
func (r *ChatStateRepository) Upsert(userID, chatID, lastReadMessageID uint) (*models.UserChatState, error) {
	state := models.UserChatState{
		UserID:            userID,
		ChatID:            chatID,
		LastReadMessageID: lastReadMessageID,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_message_id", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *ChatStateRepository) Find(userID, chatID uint) (*models.UserChatState, error) {
	var state models.UserChatState
	err := r.db.First(&state, "user_id = ? AND chat_id = ?", userID, chatID).Error
	return &state, err
}
