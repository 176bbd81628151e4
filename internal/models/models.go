package models

import "time"

// Game 对应一局猜歌游戏，Code 是玩家加入时使用的 6 位房间码。
type Game struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"uniqueIndex;size:6;not null"`
	Name         string `gorm:"size:128;not null"`
	HostID       string `gorm:"size:36;index;not null"`
	Status       string `gorm:"size:16;not null;default:waiting"`
	PasscodeHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Player 是通过游客接口注册的玩家身份。
type Player struct {
	ID          string `gorm:"primaryKey;size:36"`
	DisplayName string `gorm:"size:32;not null"`
	CreatedAt   time.Time
}

// Song 记录某局游戏选定的曲目，来源于第三方曲库。
type Song struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     uint   `gorm:"index;not null"`
	ExternalID string `gorm:"size:64;index;not null"`
	Title      string `gorm:"size:256;not null"`
	Artist     string `gorm:"size:256"`
	PreviewURL string `gorm:"size:512"`
	CreatedAt  time.Time
}
