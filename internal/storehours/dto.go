package storehours

import (
	"time"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

const (
	// DaysInWeek is the number of records returned by Get and required by Update.
	DaysInWeek = 7

	defaultOpenTime  = "08:00"
	defaultCloseTime = "18:00"
	clockLayout      = "15:04"
)

// DayHours is the opening window of one weekday (0=Sunday..6=Saturday).
type DayHours struct {
	DayOfWeek int    `json:"day_of_week"`
	DayName   string `json:"day_name"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// Status answers whether the store is open at a given instant.
type Status struct {
	IsOpen    bool      `json:"is_open"`
	DayOfWeek int       `json:"day_of_week"`
	DayName   string    `json:"day_name"`
	OpenTime  string    `json:"open_time"`
	CloseTime string    `json:"close_time"`
	CheckedAt time.Time `json:"checked_at"`
}

var dayNames = [DaysInWeek]string{
	"Domingo",
	"Segunda-feira",
	"Terça-feira",
	"Quarta-feira",
	"Quinta-feira",
	"Sexta-feira",
	"Sábado",
}

func defaultDay(day int) DayHours {
	return DayHours{
		DayOfWeek: day,
		DayName:   dayNames[day],
		IsOpen:    false,
		OpenTime:  defaultOpenTime,
		CloseTime: defaultCloseTime,
	}
}

func fromModel(row models.StoreHour) DayHours {
	return DayHours{
		DayOfWeek: row.DayOfWeek,
		DayName:   dayNames[row.DayOfWeek],
		IsOpen:    row.IsOpen,
		OpenTime:  row.OpenTime,
		CloseTime: row.CloseTime,
	}
}

func toModel(day DayHours) models.StoreHour {
	return models.StoreHour{
		DayOfWeek: day.DayOfWeek,
		IsOpen:    day.IsOpen,
		OpenTime:  day.OpenTime,
		CloseTime: day.CloseTime,
	}
}

func (d DayHours) sameAs(other DayHours) bool {
	return d.DayOfWeek == other.DayOfWeek &&
		d.IsOpen == other.IsOpen &&
		d.OpenTime == other.OpenTime &&
		d.CloseTime == other.CloseTime
}
