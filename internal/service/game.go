package service

import (
	"crypto/rand"
	"errors"

	"musicquiz/internal/auth"
	"musicquiz/internal/models"
	"musicquiz/internal/relay"

	"gorm.io/gorm"
)

// GameService 封装游戏记录相关的业务逻辑。
// 房间成员关系只归协调器管，这里只负责持久化的游戏元数据。
type GameService struct {
	db  *gorm.DB
	reg *relay.Registry
}

func NewGameService(db *gorm.DB, reg *relay.Registry) *GameService {
	return &GameService{db: db, reg: reg}
}

// GameDTO 是对外输出的游戏数据，Online 来自连接注册表的实时快照。
type GameDTO struct {
	ID      uint   `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Private bool   `json:"private"`
	Online  int    `json:"online"`
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateCode 生成 6 位房间码，字母表剔除了易混淆字符。
func generateCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// Create 创建新游戏并分配唯一房间码，passcode 非空时房间为私密。
func (s *GameService) Create(hostID, name, passcode string) (*GameDTO, error) {
	var hash string
	if passcode != "" {
		h, err := auth.HashPasscode(passcode)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	// 房间码唯一索引冲突时重试，碰撞概率极低。
	for i := 0; i < 5; i++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		game := models.Game{Code: code, Name: name, HostID: hostID, Status: "waiting", PasscodeHash: hash}
		if err := s.db.Create(&game).Error; err != nil {
			var count int64
			if s.db.Model(&models.Game{}).Where("code = ?", code).Count(&count); count > 0 {
				continue
			}
			return nil, err
		}
		return s.dto(&game), nil
	}
	return nil, ErrCodeExhausted
}

// GetByCode 按房间码查询游戏，私密房间需要口令。
func (s *GameService) GetByCode(code, passcode string) (*GameDTO, error) {
	var game models.Game
	if err := s.db.Where("code = ?", code).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if game.PasscodeHash != "" && !auth.VerifyPasscode(game.PasscodeHash, passcode) {
		return nil, ErrInvalidPasscode
	}
	return s.dto(&game), nil
}

// List 返回最近创建的游戏，附带实时在线人数。
func (s *GameService) List(limit int) ([]GameDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var games []models.Game
	if err := s.db.Order("id desc").Limit(limit).Find(&games).Error; err != nil {
		return nil, err
	}
	out := make([]GameDTO, 0, len(games))
	for _, g := range games {
		out = append(out, *s.dto(&g))
	}
	return out, nil
}

// UpdateStatus 更新游戏的持久化状态。调用方（handler）应当在
// 协调器成功广播状态变更之后再落库，而不是反过来。
func (s *GameService) UpdateStatus(code, hostID, status string) error {
	res := s.db.Model(&models.Game{}).
		Where("code = ? AND host_id = ?", code, hostID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

// SongInput 是房主挑选曲目时提交的数据。
type SongInput struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	PreviewURL string `json:"preview_url"`
}

// AddSong 记录某局游戏选定的曲目，仅房主可操作。
func (s *GameService) AddSong(code, hostID string, in SongInput) error {
	var game models.Game
	if err := s.db.Where("code = ?", code).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	if game.HostID != hostID {
		return ErrGameNotFound
	}
	song := models.Song{
		GameID:     game.ID,
		ExternalID: in.ExternalID,
		Title:      in.Title,
		Artist:     in.Artist,
		PreviewURL: in.PreviewURL,
	}
	return s.db.Create(&song).Error
}

func (s *GameService) dto(g *models.Game) *GameDTO {
	return &GameDTO{
		ID:      g.ID,
		Code:    g.Code,
		Name:    g.Name,
		Status:  g.Status,
		Private: g.PasscodeHash != "",
		Online:  s.reg.Occupancy(g.Code),
	}
}
