package models

import "time"

// StoreHour is the opening window for one weekday (0=Sunday..6=Saturday).
type StoreHour struct {
	DayOfWeek int       `gorm:"column:day_of_week;primaryKey;autoIncrement:false"`
	IsOpen    bool      `gorm:"column:is_open;not null;default:false"`
	OpenTime  string    `gorm:"column:open_time;not null"`
	CloseTime string    `gorm:"column:close_time;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
