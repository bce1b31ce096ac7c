package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStoragePut(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"ok"}`))
	}))
	defer srv.Close()

	store, err := NewSupabaseStorage(srv.URL, "service-key", time.Second, nil)
	require.NoError(t, err)

	err = store.Put(context.Background(), "DRIVER_DOCUMENTS", "d1/dbs/1_dbs.pdf", "application/pdf", bytes.NewReader([]byte("pdf")), 3)
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/DRIVER_DOCUMENTS/d1/dbs/1_dbs.pdf", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "pdf", string(gotBody))
	assert.Equal(t, srv.URL+"/storage/v1/object/public/DRIVER_DOCUMENTS/d1/dbs/1_dbs.pdf", store.PublicURL("DRIVER_DOCUMENTS", "d1/dbs/1_dbs.pdf"))
}

func TestSupabaseStorageBucketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found","message":"Bucket not found"}`))
	}))
	defer srv.Close()

	store, err := NewSupabaseStorage(srv.URL, "k", time.Second, nil)
	require.NoError(t, err)

	err = store.Put(context.Background(), "ROUTE_DOCUMENTS", "r/x.png", "image/png", bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestNewSupabaseStorageRequiresCredentials(t *testing.T) {
	_, err := NewSupabaseStorage("", "", 0, nil)
	assert.Error(t, err)
}
