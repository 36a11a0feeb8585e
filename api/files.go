package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/clients"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type FilesAPIClient struct {
	clients *clients.Clients
}

func NewFilesAPIClient(clients *clients.Clients) *FilesAPIClient {
	if clients == nil {
		panic("NewFilesAPIClient: clients is nil")
	}

	return &FilesAPIClient{clients: clients}
}

// StoreFile uploads content under fileID. An existing file is left as is, so
// redelivered messages do not fail.
func (c FilesAPIClient) StoreFile(ctx context.Context, fileID string, content string) error {
	resp, err := c.clients.Files.PutFilesFileIdContentWithTextBodyWithResponse(ctx, fileID, content)
	if err != nil {
		return fmt.Errorf("failed to upload file %s: %w", fileID, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		log.FromContext(ctx).Infof("file %s already exists", fileID)
		return nil
	default:
		return fmt.Errorf("failed to upload file %s: unexpected status code %d", fileID, resp.StatusCode())
	}
}
