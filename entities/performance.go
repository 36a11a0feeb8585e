package entities

import (
	"time"

	"github.com/google/uuid"
)

const PerformanceStatusActive = "active"

type Performance struct {
	PerformanceID uuid.UUID `json:"performance_id" db:"performance_id"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	Status        string    `json:"status" db:"status"`

	// StartDate is the scheduled start; ScheduleTime is only the display label.
	StartDate    time.Time `json:"start_date" db:"start_date"`
	ScheduleTime string    `json:"schedule_time" db:"schedule_time"`

	TotalCapacity     int `json:"total_capacity" db:"total_capacity"`
	AvailableCapacity int `json:"available_capacity" db:"available_capacity"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (p Performance) SoldOut() bool {
	return p.AvailableCapacity <= 0
}

type PerformanceCreateResponse struct {
	PerformanceID uuid.UUID `json:"performance_id"`
}
