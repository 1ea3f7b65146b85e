package models

import "time"

// Governorate is one of the fixed Egyptian administrative regions.
type Governorate struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	NameEn    string    `gorm:"column:name_en;not null"`
	Code      string    `gorm:"column:code;type:varchar(3);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Party is a registered political party, or the "Independent" placeholder.
type Party struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	NameEn       string    `gorm:"column:name_en;not null"`
	Abbreviation string    `gorm:"column:abbreviation;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
