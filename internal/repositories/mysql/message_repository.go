package mysql

import (
	"chat-relay/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

// CreateAll stores every row in one transaction and reloads them with their
// sender and attachment associations so callers get wire-ready records.
func (r *MessageRepository) CreateAll(messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range messages {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, m := range messages {
		var loaded models.Message
		if err := r.db.Preload("Sender").Preload("Attachment").First(&loaded, "id = ?", m.ID).Error; err != nil {
			return err
		}
		messages[i] = &loaded
	}
	return nil
}

func (r *MessageRepository) FindByChatID(chatID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.Preload("Sender").Preload("Attachment").
		Where("chat_id = ?", chatID).
		Order("id").
		Find(&messages).Error
	return messages, err
}
