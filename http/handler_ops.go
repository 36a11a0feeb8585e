package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h Handler) GetPerformanceAttendance(c echo.Context) error {
	performanceID, err := parseUUID(c.Param("id"), "performance id")
	if err != nil {
		return respondError(c, err)
	}

	attendance, err := h.attendance.AttendanceByPerformanceID(c.Request().Context(), performanceID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, attendance)
}
