package http

import (
	"net/http"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"boxoffice/observability"
)

func NewHttpRouter(
	issuance TicketIssuer,
	redemption TicketRedeemer,
	performances PerformanceRepository,
	tickets TicketReader,
	attendance AttendanceReadModel,
	commandBus CommandBus,
) *echo.Echo {
	e := libHttp.NewEcho()

	e.Use(otelecho.Middleware(observability.ServiceName))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := Handler{
		issuance:     issuance,
		redemption:   redemption,
		performances: performances,
		tickets:      tickets,
		attendance:   attendance,
		commandBus:   commandBus,
	}

	e.POST("/tickets", handler.PostTickets)
	e.DELETE("/tickets/:id", handler.DeleteTicket)
	e.POST("/tickets/validate", handler.PostValidateTicket)
	e.PATCH("/tickets/:id/use", handler.PatchUseTicket)
	e.POST("/tickets/:id/resend", handler.PostResendTicket)

	e.POST("/performances", handler.PostPerformances)
	e.GET("/performances", handler.GetPerformances)
	e.GET("/performances/:id", handler.GetPerformance)
	e.GET("/performances/:id/tickets", handler.GetPerformanceTickets)

	e.GET("/attendees/:id/tickets", handler.GetAttendeeTickets)

	e.GET("/ops/performances/:id/attendance", handler.GetPerformanceAttendance)

	return e
}
