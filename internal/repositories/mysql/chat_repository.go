package mysql

import (
	"chat-relay/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db}
}

func (r *ChatRepository) Create(chat *models.Chat) error {
	return r.db.Create(chat).Error
}

func (r *ChatRepository) FindByID(id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.Preload("Participants").First(&chat, "id = ?", id).Error
	return &chat, err
}

func (r *ChatRepository) FindByUserID(userID uint) ([]*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.Preload("Participants").
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id").
		Where("cp.user_id = ?", userID).
		Find(&chats).Error
	return chats, err
}

// FindPrivateBetween looks up an existing private chat whose participant
// set is exactly the two given users (which may be the same user for a
// self-chat).
func (r *ChatRepository) FindPrivateBetween(userA, userB uint) (*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.Preload("Participants").
		Where("chat_type = ?", models.ChatTypePrivate).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	want := map[uint]struct{}{userA: {}, userB: {}}
	for _, c := range chats {
		if len(c.Participants) != len(want) {
			continue
		}
		match := true
		for _, p := range c.Participants {
			if _, ok := want[p.ID]; !ok {
				match = false
				break
			}
		}
		if match {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *ChatRepository) AddParticipants(chat *models.Chat, users []*models.User) error {
	return r.db.Model(chat).Association("Participants").Append(users)
}

func (r *ChatRepository) RemoveParticipants(chat *models.Chat, users []*models.User) error {
	return r.db.Model(chat).Association("Participants").Delete(users)
}

// IsMember reports whether the user participates in the chat with a single
// indexed count query against the join table.
func (r *ChatRepository) IsMember(chatID, userID uint) (bool, error) {
	var count int64
	err := r.db.Table("chat_participants").
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// MemberIDs lists the user ids participating in the chat.
func (r *ChatRepository) MemberIDs(chatID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("chat_participants").
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	return ids, err
}
