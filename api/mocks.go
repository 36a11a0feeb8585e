package api

import (
	"context"
	"sync"

	"boxoffice/entities"
)

type SpreadsheetsMock struct {
	lock sync.Mutex
	rows map[string][][]string
}

func (c *SpreadsheetsMock) AppendRow(ctx context.Context, spreadsheetName string, row []string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.rows == nil {
		c.rows = make(map[string][][]string)
	}
	c.rows[spreadsheetName] = append(c.rows[spreadsheetName], row)

	return nil
}

func (c *SpreadsheetsMock) Rows(spreadsheetName string) [][]string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([][]string(nil), c.rows[spreadsheetName]...)
}

type FilesMock struct {
	lock  sync.Mutex
	files map[string]string
}

func (c *FilesMock) StoreFile(ctx context.Context, fileID string, content string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.files == nil {
		c.files = make(map[string]string)
	}
	c.files[fileID] = content

	return nil
}

func (c *FilesMock) File(fileID string) (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	content, ok := c.files[fileID]
	return content, ok
}

type NotificationSenderMock struct {
	lock sync.Mutex
	sent []entities.TicketNotification
}

func (m *NotificationSenderMock) Send(ctx context.Context, notification entities.TicketNotification) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.sent = append(m.sent, notification)
	return nil
}

func (m *NotificationSenderMock) Sent() []entities.TicketNotification {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]entities.TicketNotification(nil), m.sent...)
}
