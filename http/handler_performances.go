package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"boxoffice/entities"
)

type createPerformanceRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	StartDate     string `json:"start_date"`
	ScheduleTime  string `json:"schedule_time"`
	TotalCapacity *int   `json:"total_capacity"`
}

// startDate accepts an RFC 3339 instant, or a date that is combined with the
// schedule time (HH:MM, UTC) when that parses.
func (r createPerformanceRequest) startDate() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, r.StartDate); err == nil {
		return t.UTC(), nil
	}

	date, err := time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, invalidInput("start_date must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}

	if clock, err := time.Parse("15:04", r.ScheduleTime); err == nil {
		date = date.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	}

	return date, nil
}

func (r createPerformanceRequest) toPerformance() (entities.Performance, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return entities.Performance{}, invalidInput("name is required")
	}
	if strings.TrimSpace(r.ScheduleTime) == "" {
		return entities.Performance{}, invalidInput("schedule_time is required")
	}
	if r.TotalCapacity == nil {
		return entities.Performance{}, invalidInput("total_capacity is required")
	}
	if *r.TotalCapacity <= 0 {
		return entities.Performance{}, invalidInput("total_capacity must be positive")
	}

	startDate, err := r.startDate()
	if err != nil {
		return entities.Performance{}, err
	}

	status := r.Status
	if status == "" {
		status = entities.PerformanceStatusActive
	}

	return entities.Performance{
		Name:              name,
		Category:          r.Category,
		Status:            status,
		StartDate:         startDate,
		ScheduleTime:      r.ScheduleTime,
		TotalCapacity:     *r.TotalCapacity,
		AvailableCapacity: *r.TotalCapacity,
	}, nil
}

func (h Handler) PostPerformances(c echo.Context) error {
	var request createPerformanceRequest
	if err := c.Bind(&request); err != nil {
		return respondError(c, invalidInput("malformed request body"))
	}

	performance, err := request.toPerformance()
	if err != nil {
		return respondError(c, err)
	}

	resp, err := h.performances.Create(c.Request().Context(), performance)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h Handler) GetPerformances(c echo.Context) error {
	performances, err := h.performances.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, performances)
}

func (h Handler) GetPerformance(c echo.Context) error {
	performanceID, err := parseUUID(c.Param("id"), "performance id")
	if err != nil {
		return respondError(c, err)
	}

	performance, err := h.performances.PerformanceByID(c.Request().Context(), performanceID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, performance)
}
