// Package imghost is the client for the external image-hosting service.
// The client is constructed once at startup and handed to the components
// that need it; nothing in here is process-global.
package imghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const DefaultFolder = "event_images"

type Client struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Folder    string
	HTTP      *http.Client
}

func New(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    DefaultFolder,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Upload streams one image to the host under the client's folder and
// returns the durable public URL the host assigned.
func (c *Client) Upload(ctx context.Context, filename string, data io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, err
	}
	_ = writer.WriteField("folder", c.Folder)
	_ = writer.WriteField("api_key", c.APIKey)
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.APIKey, c.APISecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("image host returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding image host response: %w", err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("image host returned no URL")
	}
	return &result, nil
}

// Delete asks the host to destroy a previously uploaded image.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("api_key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/destroy", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.APIKey, c.APISecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("image host unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image host returned %s", resp.Status)
	}
	return nil
}

// PublicIDFromURL derives the host-side identifier for a stored image URL:
// the folder plus the final path segment with its extension stripped.
func (c *Client) PublicIDFromURL(imageURL string) string {
	base := path.Base(imageURL)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	return c.Folder + "/" + base
}
