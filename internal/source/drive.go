package source

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/models"
)

const drivePageSize = 100

var _ Provider = (*Drive)(nil)

// Drive implements Provider backed by a Google Drive folder read through
// the Drive v3 API.
type Drive struct {
	svc      *drive.Service
	folderID string
}

// DriveCredentials locates the service account used to read the folder.
// Leave both fields empty to fall back to application default credentials.
type DriveCredentials struct {
	File string
	JSON string
}

// NewDrive creates a read-only Drive provider for the given folder.
func NewDrive(ctx context.Context, folderID string, creds DriveCredentials) (*Drive, error) {
	if folderID == "" {
		return nil, fmt.Errorf("source: drive folder id is empty")
	}
	opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	switch {
	case creds.JSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("source: create drive client: %w", err)
	}
	return &Drive{svc: svc, folderID: folderID}, nil
}

// List pages through files.list until the page token runs out, preserving
// the order Drive reports.
func (d *Drive) List(ctx context.Context) ([]models.FileRecord, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", d.folderID)
	var out []models.FileRecord
	pageToken := ""
	for {
		call := d.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			PageSize(drivePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("source: list drive folder: %w", err)
		}
		for _, f := range list.Files {
			out = append(out, models.FileRecord{ID: f.Id, Name: f.Name, MediaType: f.MimeType})
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		pageToken = list.NextPageToken
	}
}

// Fetch downloads the raw bytes of one file.
func (d *Drive) Fetch(ctx context.Context, id string) ([]byte, error) {
	resp, err := d.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("source: download %s: %w", id, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", id, err)
	}
	return data, nil
}

func (d *Drive) String() string {
	return "drive:" + d.folderID
}
