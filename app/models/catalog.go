package models

import "time"

// Catalog tables. Column names follow the existing content schema, which is why
// the price column differs per variant (gold_required, gold, coin).

type LongVideo struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);default:''" json:"title"`
	GoldRequired int64     `gorm:"column:gold_required;not null;default:0" json:"gold_required"`
	IsVip        bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LongVideo) TableName() string { return "long_videos" }

type ComicChapter struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	MangaID   uint64    `gorm:"column:manga_id;not null;index" json:"manga_id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Coin      int64     `gorm:"not null;default:0" json:"coin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ComicChapter) TableName() string { return "comic_chapters" }

type NovelChapter struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	NovelID   uint64    `gorm:"column:novel_id;not null;index" json:"novel_id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Coin      int64     `gorm:"not null;default:0" json:"coin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (NovelChapter) TableName() string { return "text_novel_chapter" }

type AudioNovelChapter struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	NovelID   uint64    `gorm:"column:novel_id;not null;index" json:"novel_id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Coin      int64     `gorm:"not null;default:0" json:"coin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AudioNovelChapter) TableName() string { return "audio_novel_chapter" }

type AnimeVideo struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);default:''" json:"title"`
	GoldRequired int64     `gorm:"column:gold_required;not null;default:0" json:"gold_required"`
	IsVip        bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AnimeVideo) TableName() string { return "anime_videos" }

type DarknetVideo struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Gold      int64     `gorm:"not null;default:0" json:"gold"`
	IsVip     bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DarknetVideo) TableName() string { return "darknet_video" }

type DouyinVideo struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Gold      int64     `gorm:"not null;default:0" json:"gold"`
	IsVip     bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DouyinVideo) TableName() string { return "douyin_videos" }

const (
	StarMediaTypeVideo    = "video"
	StarMediaTypeGallery  = "gallery"
	StarMediaStatusOnline = 1
)

// StarMedia holds creator uploads; only online video rows can be unlocked.
type StarMedia struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);default:''" json:"title"`
	Type      string    `gorm:"type:varchar(20);not null;default:'video'" json:"type"`
	Status    int       `gorm:"not null" json:"status"`
	Coin      int64     `gorm:"not null;default:0" json:"coin"`
	IsVip     bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StarMedia) TableName() string { return "onlyfans_media" }

// CatalogModels returns every catalog model for AutoMigrate.
func CatalogModels() []interface{} {
	return []interface{}{
		&LongVideo{},
		&ComicChapter{},
		&NovelChapter{},
		&AudioNovelChapter{},
		&AnimeVideo{},
		&DarknetVideo{},
		&DouyinVideo{},
		&StarMedia{},
	}
}
