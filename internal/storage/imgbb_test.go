package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImgbbUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test-key", r.FormValue("key"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "chart.png", header.Filename)

		w.Write([]byte(`{"data":{"url":"https://i.ibb.co/abc/chart.png"}}`))
	}))
	defer srv.Close()

	svc := NewImgbbService("test-key")
	svc.endpoint = srv.URL

	url, err := svc.Upload(context.Background(), "chart.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/chart.png", url)
}

func TestImgbbUploadFailures(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		svc := NewImgbbService("")
		_, err := svc.Upload(context.Background(), "a.png", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		svc := NewImgbbService("test-key")
		svc.endpoint = srv.URL
		_, err := svc.Upload(context.Background(), "a.png", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("empty url in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{}}`))
		}))
		defer srv.Close()

		svc := NewImgbbService("test-key")
		svc.endpoint = srv.URL
		_, err := svc.Upload(context.Background(), "a.png", []byte("x"))
		assert.Error(t, err)
	})
}
