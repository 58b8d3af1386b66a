package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeGCS serves the subset of the JSON API used by the GCS sink.
type fakeGCS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		name, data, err := readMultipartUpload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.objects[name] = data
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"bucket": "reports",
			"name":   name,
			"size":   "4",
		})
	case http.MethodGet:
		_, name, ok := strings.Cut(r.URL.Path, "/o/")
		data, found := f.objects[name]
		if !ok || !found {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
			return
		}
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func readMultipartUpload(r *http.Request) (string, []byte, error) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", nil, err
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	meta, err := mr.NextPart()
	if err != nil {
		return "", nil, err
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(meta).Decode(&obj); err != nil {
		return "", nil, err
	}

	media, err := mr.NextPart()
	if err != nil {
		return "", nil, err
	}
	data, err := io.ReadAll(media)
	return obj.Name, data, err
}

func newFakeGCS(t *testing.T) *GCS {
	t.Helper()
	srv := httptest.NewServer(&fakeGCS{objects: map[string][]byte{}})
	t.Cleanup(srv.Close)

	sink, err := NewGCS(context.Background(), "reports", "", nil,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return sink
}

func TestGCS_PutGet(t *testing.T) {
	ctx := context.Background()
	sink := newFakeGCS(t)

	require.NoError(t, sink.Put(ctx, "output_combined.xlsx", strings.NewReader("data")))

	rc, err := sink.Get(ctx, "output_combined.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "data", readAll(t, rc))
	assert.Equal(t, "gcs", sink.Backend())
}

func TestGCS_NotFound(t *testing.T) {
	sink := newFakeGCS(t)

	_, err := sink.Get(context.Background(), "missing.xlsx")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewGCS_RequiresBucket(t *testing.T) {
	_, err := NewGCS(context.Background(), "", "", nil, option.WithoutAuthentication())

	assert.Error(t, err)
}
