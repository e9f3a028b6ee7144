package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"gatepass/imghost"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerFor(name, contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
		Size:     size,
	}
}

func TestValidateBatch(t *testing.T) {
	ok := []*multipart.FileHeader{
		headerFor("a.jpg", "image/jpeg", 1024),
		headerFor("b.png", "image/png", 2048),
		headerFor("c.gif", "image/gif", 4096),
	}
	assert.NoError(t, ValidateBatch(ok))
}

func TestValidateBatchTooManyFiles(t *testing.T) {
	var files []*multipart.FileHeader
	for i := 0; i < MaxFiles+1; i++ {
		files = append(files, headerFor(fmt.Sprintf("f%d.jpg", i), "image/jpeg", 100))
	}
	err := ValidateBatch(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many files")
}

func TestValidateBatchOversizeFile(t *testing.T) {
	files := []*multipart.FileHeader{
		headerFor("small.jpg", "image/jpeg", 100),
		headerFor("huge.jpg", "image/jpeg", MaxFileSize+1),
	}
	err := ValidateBatch(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File size too large")
}

func TestValidateBatchDisallowedType(t *testing.T) {
	files := []*multipart.FileHeader{
		headerFor("movie.mp4", "video/mp4", 100),
	}
	err := ValidateBatch(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid file type")
}

// formFiles builds real *multipart.FileHeader values by writing and
// re-parsing a multipart body, so Open() works in UploadBatch.
func formFiles(t *testing.T, count int) []*multipart.FileHeader {
	t.Helper()

	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for i := 0; i < count; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="img%d.png"`, i))
		h.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(imgBuf.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["images"]
}

func TestUploadBatch(t *testing.T) {
	var uploads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		json.NewEncoder(w).Encode(imghost.UploadResult{
			PublicID:  fmt.Sprintf("event_images/img%d", uploads),
			SecureURL: fmt.Sprintf("https://cdn.example.com/event_images/img%d.png", uploads),
		})
	}))
	defer server.Close()

	svc := NewService(imghost.New(server.URL, "key", "secret"))
	urls, err := svc.UploadBatch(context.Background(), formFiles(t, 3))
	require.NoError(t, err)

	assert.Len(t, urls, 3)
	assert.Equal(t, 3, uploads)
	assert.Equal(t, "https://cdn.example.com/event_images/img1.png", urls[0])
}

func TestUploadBatchAbortsOnHostFailure(t *testing.T) {
	var uploads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if uploads == 2 {
			http.Error(w, "disk full", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(imghost.UploadResult{
			PublicID:  "event_images/ok",
			SecureURL: "https://cdn.example.com/event_images/ok.png",
		})
	}))
	defer server.Close()

	svc := NewService(imghost.New(server.URL, "key", "secret"))
	urls, err := svc.UploadBatch(context.Background(), formFiles(t, 3))

	// The batch is a unit: no partial URL list after a failure.
	require.Error(t, err)
	assert.Nil(t, urls)
	assert.Equal(t, 2, uploads)
}

func TestUploadBatchRejectsInvalidBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("host must not be called for an invalid batch")
	}))
	defer server.Close()

	svc := NewService(imghost.New(server.URL, "key", "secret"))
	_, err := svc.UploadBatch(context.Background(), []*multipart.FileHeader{
		headerFor("movie.mp4", "video/mp4", 100),
	})
	assert.Error(t, err)
}
