package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veriloan/backend/internal/config"
)

// HTTPClient talks to the AI services over HTTP with a bounded timeout.
// Timeouts and transport failures surface as errors; they are never converted
// into a default-success result.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a verification client from config
func NewHTTPClient(cfg config.VerificationConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// VerifyDocument submits a document image for authenticity checking and field
// extraction
func (c *HTTPClient) VerifyDocument(ctx context.Context, payload []byte, documentType string) (*DocumentResult, error) {
	fields := map[string]string{"doc_type": documentType}

	var result DocumentResult
	if err := c.postMultipart(ctx, "/api/verify-document", "document", payload, fields, &result); err != nil {
		return nil, fmt.Errorf("document verification: %w", err)
	}

	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("document verification: confidence %f out of range", result.Confidence)
	}

	return &result, nil
}

// TranscribeAndScore submits a recorded answer for transcription and sentiment
// scoring. Sentiment is enrichment: a sentiment failure after a successful
// transcription does not fail the call.
func (c *HTTPClient) TranscribeAndScore(ctx context.Context, payload []byte, questionID string) (*SpeechResult, error) {
	fields := map[string]string{"question_id": questionID}

	var speech struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.postMultipart(ctx, "/api/speech-to-text", "audio_file", payload, fields, &speech); err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	result := &SpeechResult{
		Transcript: speech.Text,
		Confidence: speech.Confidence,
	}

	var sentiment struct {
		Score     float64 `json:"score"`
		Magnitude float64 `json:"magnitude"`
	}
	if err := c.postForm(ctx, "/api/analyze-sentiment", url.Values{"text": {speech.Text}}, &sentiment); err != nil {
		log.Printf("Sentiment analysis failed for question %s: %v", questionID, err)
		return result, nil
	}
	result.SentimentScore = sentiment.Score

	return result, nil
}

// postMultipart uploads a binary payload plus form fields and decodes the JSON
// response into out
func (c *HTTPClient) postMultipart(ctx context.Context, path, fileField string, payload []byte, fields map[string]string, out interface{}) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(fileField, fileField)
	if err != nil {
		return err
	}
	if _, err := part.Write(payload); err != nil {
		return err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, out)
}

// postForm sends URL-encoded form data and decodes the JSON response into out
func (c *HTTPClient) postForm(ctx context.Context, path string, values url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verification service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("verification service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode verification response: %w", err)
	}

	return nil
}
