package models

import (
	"encoding/json"
	"time"
)

// Document is a source document already converted to plain text.
type Document struct {
	ID       string
	Source   string
	Title    string
	Content  string
	Metadata map[string]interface{}
}

type ExtractionRequest struct {
	// Label is the document type, e.g. "contrato" or "nota fiscal".
	Label    string
	Schema   []byte
	Document Document
}

type ExtractionResult struct {
	Data        json.RawMessage `json:"data"`
	Cache       CacheInfo       `json:"cache"`
	Performance Performance     `json:"performance"`
	Document    DocumentInfo    `json:"document"`
	Reduction   ReductionInfo   `json:"reduction"`
}

type CacheInfo struct {
	Hit      bool       `json:"hit"`
	Key      string     `json:"key,omitempty"`
	CachedAt *time.Time `json:"cachedAt,omitempty"`
}

type Performance struct {
	ExecutionTime float64   `json:"executionTime"`
	RequestID     string    `json:"requestId"`
	Timestamp     time.Time `json:"timestamp"`
}

type DocumentInfo struct {
	Type         string `json:"type"`
	SchemaFields int    `json:"schemaFields"`
}

// ReductionInfo reports how much of the document reached the model.
type ReductionInfo struct {
	Strategy       string `json:"strategy"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	OriginalChars  int    `json:"originalChars"`
	ReducedChars   int    `json:"reducedChars"`
	OriginalTokens int    `json:"originalTokens,omitempty"`
	ReducedTokens  int    `json:"reducedTokens,omitempty"`
	Excerpts       int    `json:"excerpts"`
}
