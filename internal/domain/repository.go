package domain

import (
	"context"
	"time"
)

// KeyValueStore defines the interface for TTL-bound state such as OTP challenges and sessions
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogRepository persists the product catalog
type CatalogRepository interface {
	Load(ctx context.Context) ([]CatalogEntry, error)
	// Mutate loads the catalog, applies fn and rewrites the file when fn reports a change.
	// Calls are serialized.
	Mutate(ctx context.Context, fn func(entries []CatalogEntry) ([]CatalogEntry, bool, error)) error
}

// QuizRepository provides training questions
type QuizRepository interface {
	Questions(ctx context.Context) ([]QuizQuestion, error)
}

// ScriptRepository provides Q&A and objection scripts
type ScriptRepository interface {
	Scripts(ctx context.Context) ([]SalesScript, error)
}

// ChatClient defines the interface for the LLM chat service
type ChatClient interface {
	Chat(ctx context.Context, system string, messages []ChatMessage) (string, *TokenUsage, error)
}

// OTPSender delivers a one-time password to the user
type OTPSender interface {
	Send(ctx context.Context, identifier, code string) error
}

// DocumentIngestor normalizes an artifact into raw text
type DocumentIngestor interface {
	Ingest(ctx context.Context, doc RawDocument) (IngestedText, error)
}

// IngestedText is the normalized output of ingestion
type IngestedText struct {
	Text      string
	Method    string
	Corrupted bool
}
