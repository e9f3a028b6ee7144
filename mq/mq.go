// Package mq emits entity-change notifications to the external search
// indexer. Emission is fire-and-forget with bounded retry; a down indexer
// never fails the originating request.
package mq

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/quic-go/quic-go/http3"
)

// indexerURL is resolved on every emit; the variable is set by .env, which
// main loads well after this package initializes.
func indexerURL() string {
	return os.Getenv("INDEX_URL")
}

type Index struct {
	EntityType string `json:"entity_type"`
	Action     string `json:"action"`
	EntityId   string `json:"entity_id"`
	ItemType   string `json:"item_type,omitempty"`
	ItemId     string `json:"item_id,omitempty"`
}

// Emit sends one change notification, retrying transient failures.
func Emit(eventName string, content Index) error {
	url := indexerURL()
	if url == "" {
		return nil
	}

	jsonData, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("error marshalling %s payload: %w", eventName, err)
	}

	if err := post(url, jsonData); err != nil {
		log.Printf("mq: %s not delivered: %v", eventName, err)
		return err
	}
	return nil
}

func post(url string, jsonData []byte) error {
	client := &http.Client{
		Transport: &http3.Transport{
			// The indexer runs with a self-signed certificate inside the
			// deployment network.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		Timeout: 5 * time.Second,
	}

	maxRetries := 3
	baseDelay := time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(baseDelay << (attempt - 1))
		}

		resp, err := client.Post(url, "application/json", bytes.NewReader(jsonData))
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 500 {
			return nil
		}
		lastErr = fmt.Errorf("indexer returned %s", resp.Status)
	}
	return lastErr
}
