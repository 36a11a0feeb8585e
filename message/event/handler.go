package event

import (
	"context"

	"boxoffice/entities"
)

type SpreadsheetsAPI interface {
	AppendRow(ctx context.Context, sheetName string, row []string) error
}

type FilesAPI interface {
	StoreFile(ctx context.Context, fileID string, content string) error
}

type QREncoder interface {
	Encode(payload []byte) ([]byte, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type DataLake interface {
	Create(ctx context.Context, event entities.DataLakeEvent) error
}

type Handler struct {
	spreadsheetsAPI SpreadsheetsAPI
	filesAPI        FilesAPI
	qrEncoder       QREncoder
	eventBus        EventPublisher
}

func NewHandler(
	spreadsheetsAPI SpreadsheetsAPI,
	filesAPI FilesAPI,
	qrEncoder QREncoder,
	eventBus EventPublisher,
) Handler {
	if spreadsheetsAPI == nil {
		panic("missing spreadsheetsAPI")
	}
	if filesAPI == nil {
		panic("missing filesAPI")
	}
	if qrEncoder == nil {
		panic("missing qrEncoder")
	}
	if eventBus == nil {
		panic("missing eventBus")
	}

	return Handler{
		spreadsheetsAPI: spreadsheetsAPI,
		filesAPI:        filesAPI,
		qrEncoder:       qrEncoder,
		eventBus:        eventBus,
	}
}
