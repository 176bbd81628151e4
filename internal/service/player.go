package service

import (
	"musicquiz/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerService 负责游客玩家身份的注册。
type PlayerService struct {
	db *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{db: db}
}

// CreateGuest 以给定昵称注册一个游客玩家，返回新分配的身份。
func (s *PlayerService) CreateGuest(displayName string) (*models.Player, error) {
	player := models.Player{ID: uuid.NewString(), DisplayName: displayName}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}
