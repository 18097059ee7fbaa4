// Package verification wraps the external AI verification services (document
// OCR, speech-to-text, sentiment). The services may time out or return low
// confidence; callers must treat every call as fallible and keep their own
// records consistent when it is.
package verification

import "context"

// DocumentResult is the outcome of a document authenticity check
type DocumentResult struct {
	Verified        bool              `json:"verified"`
	Confidence      float64           `json:"confidence"`
	ExtractedFields map[string]string `json:"extracted_data"`
}

// SpeechResult is the outcome of transcribing and scoring a recorded answer
type SpeechResult struct {
	Transcript     string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Client is the boundary to the verification services
type Client interface {
	VerifyDocument(ctx context.Context, payload []byte, documentType string) (*DocumentResult, error)
	TranscribeAndScore(ctx context.Context, payload []byte, questionID string) (*SpeechResult, error)
}
