package media

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"gatepass/auth"
	"gatepass/imghost"
	"gatepass/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
)

const (
	MaxFiles    = 5
	MaxFileSize = 5 << 20 // 5MB

	// Uploaded images are bounded to this box before leaving for the host.
	maxDimension = 1000
)

var allowedTypes = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
}

// Service forwards validated image batches to the external host. The
// client is injected at startup.
type Service struct {
	Host *imghost.Client
}

func NewService(host *imghost.Client) *Service {
	return &Service{Host: host}
}

// ValidateBatch rejects the whole request if any file violates the batch
// rules, naming the specific violation.
func ValidateBatch(files []*multipart.FileHeader) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("Too many files. Maximum is %d files.", MaxFiles)
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return fmt.Errorf("File size too large. Maximum size is 5MB.")
		}
		if _, ok := allowedTypes[fh.Header.Get("Content-Type")]; !ok {
			return fmt.Errorf("Invalid file type. Only JPEG, PNG and GIF are allowed.")
		}
	}
	return nil
}

// prepare re-encodes one upload bounded to the host's display size.
func prepare(fh *multipart.FileHeader) (*bytes.Buffer, error) {
	format := allowedTypes[fh.Header.Get("Content-Type")]

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fh.Filename, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", fh.Filename, err)
	}
	return &buf, nil
}

// UploadBatch validates, prepares, and forwards a batch, returning the
// public URLs. The batch is a unit: the first host failure aborts and no
// partial URL list is returned.
func (s *Service) UploadBatch(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if err := ValidateBatch(files); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		buf, err := prepare(fh)
		if err != nil {
			return nil, err
		}
		result, err := s.Host.Upload(ctx, fh.Filename, buf)
		if err != nil {
			return nil, err
		}
		urls = append(urls, result.SecureURL)
	}
	return urls, nil
}

// DeleteImages requests host-side deletion for each stored URL. Failures
// are collected rather than aborting: the images are already orphaned once
// the owning document is gone.
func (s *Service) DeleteImages(ctx context.Context, urls []string) error {
	var firstErr error
	for _, u := range urls {
		if err := s.Host.Delete(ctx, s.Host.PublicIDFromURL(u)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// POST /api/upload
func (s *Service) Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := auth.ContextUser(r.Context()); !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Unable to parse form", err)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.SendError(w, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	if err := ValidateBatch(files); err != nil {
		utils.SendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	urls, err := s.UploadBatch(r.Context(), files)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Error uploading images", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]any{"urls": urls})
}
