package docs

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"

	"github.com/teemow/driveingest/internal/docs/docstest"
)

func TestClient_ExtractText(t *testing.T) {
	srv := docstest.NewServer(t)
	srv.AddDocument("d1",
		docstest.Paragraph("Title\n"),
		docstest.Table([][]*docs.StructuralElement{{docstest.Paragraph("1")}, {docstest.Paragraph("2")}}),
	)

	client := NewClientWithService(srv.Service(t))

	text, err := client.ExtractText(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Title\n12", text)
	assert.Equal(t, 1, srv.Calls("d1"))
}

func TestClient_ExtractText_EmptyDocument(t *testing.T) {
	srv := docstest.NewServer(t)
	srv.AddDocument("empty")

	client := NewClientWithService(srv.Service(t))

	text, err := client.ExtractText(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestClient_ExtractText_Errors(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		setup      func(srv *docstest.Server)
		wantStatus int
	}{
		{
			name:       "not found",
			documentID: "missing",
			setup:      func(srv *docstest.Server) {},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "permission denied",
			documentID: "secret",
			setup: func(srv *docstest.Server) {
				srv.AddDocument("secret", docstest.Paragraph("x"))
				srv.Fail("secret", http.StatusForbidden)
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := docstest.NewServer(t)
			tt.setup(srv)
			client := NewClientWithService(srv.Service(t))

			text, err := client.ExtractText(context.Background(), tt.documentID)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.ErrorIs(t, err, ErrRemoteFetch)
			assert.Contains(t, err.Error(), tt.documentID)

			var apiErr *googleapi.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.Code)
		})
	}
}

func TestClient_GetDocument_EmptyID(t *testing.T) {
	client := NewClientWithService(nil)

	_, err := client.GetDocument(context.Background(), "")
	assert.ErrorIs(t, err, ErrRemoteFetch)
}

func TestNewClient_WithClientOptions(t *testing.T) {
	srv := docstest.NewServer(t)
	srv.AddDocument("d1", docstest.Paragraph("hi"))

	client, err := NewClient(context.Background(), nil, WithClientOptions(srv.ClientOptions()...))
	require.NoError(t, err)

	text, err := client.ExtractText(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}
