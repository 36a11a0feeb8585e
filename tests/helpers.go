package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/stretchr/testify/require"
)

const apiAddr = "http://localhost:8080"

type apiResponse struct {
	StatusCode int
	Body       []byte
}

func (r apiResponse) decode(t *testing.T, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, target), string(r.Body))
}

func sendRequest(t *testing.T, method, path string, body any) apiResponse {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(b)
	}

	req, err := http.NewRequest(method, apiAddr+path, payload)
	require.NoError(t, err)

	req.Header.Set("Correlation-ID", shortuuid.New())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return apiResponse{StatusCode: resp.StatusCode, Body: respBody}
}

type createPerformanceRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	StartDate     string `json:"start_date"`
	ScheduleTime  string `json:"schedule_time"`
	TotalCapacity int    `json:"total_capacity"`
}

type issueTicketRequest struct {
	PerformanceID string `json:"performance_id"`
	Email         string `json:"email"`
}

type ticketResponse struct {
	TicketID      string `json:"ticket_id"`
	PerformanceID string `json:"performance_id"`
	Status        string `json:"status"`
}

type issueTicketResponse struct {
	Ticket           ticketResponse `json:"ticket"`
	QRPayload        string         `json:"qr_payload"`
	NotificationSent bool           `json:"notification_sent"`
}

type errorResponse struct {
	Code string `json:"code"`
}

func createPerformance(t *testing.T, capacity int) string {
	t.Helper()

	resp := sendRequest(t, http.MethodPost, "/performances", createPerformanceRequest{
		Name:          "Hamlet",
		Category:      "theatre",
		StartDate:     "2099-06-01",
		ScheduleTime:  "19:30",
		TotalCapacity: capacity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var created struct {
		PerformanceID string `json:"performance_id"`
	}
	resp.decode(t, &created)

	return created.PerformanceID
}

func issueTicket(t *testing.T, performanceID, email string) issueTicketResponse {
	t.Helper()

	resp := sendRequest(t, http.MethodPost, "/tickets", issueTicketRequest{
		PerformanceID: performanceID,
		Email:         email,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	var issued issueTicketResponse
	resp.decode(t, &issued)

	return issued
}

func requireErrorCode(t *testing.T, resp apiResponse, status int, code string) {
	t.Helper()

	require.Equal(t, status, resp.StatusCode, string(resp.Body))

	var errResp errorResponse
	resp.decode(t, &errResp)
	require.Equal(t, code, errResp.Code)
}
