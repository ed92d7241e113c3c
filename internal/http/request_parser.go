// Package http exposes the ledger as a JSON API.
//
// This file implements utilities for parsing request data. Submissions
// may arrive as JSON objects or as form-encoded bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// MaxBodyBytes bounds the size of a submission body.
const MaxBodyBytes = 64 << 10

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrInvalidID    = errors.New("invalid transaction id")
	ErrTrailingData = errors.New("unexpected data after JSON object")
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most MaxBodyBytes of the request body once
// and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if p.err == nil && len(p.body) > MaxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// JSON when declared or when the body looks like an object
	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(p.contentType, "application/json") || strings.HasPrefix(trimmed, "{") {
		if err := p.decodeJSON(); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// decodeJSON keeps numbers as json.Number so amounts reach the decimal
// parser with every digit the client sent.
func (p *RequestBodyParser) decodeJSON() error {
	dec := json.NewDecoder(bytes.NewReader(p.body))
	dec.UseNumber()
	p.jsonData = make(map[string]any)
	if err := dec.Decode(&p.jsonData); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return ErrTrailingData
	}
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Submission maps the parsed body onto the raw input of the ledger.
// Fields are passed through as typed; validation happens in core.
func (p *RequestBodyParser) Submission() (core.Submission, error) {
	if err := p.Parse(); err != nil {
		return core.Submission{}, err
	}
	kind := p.Get("type")
	if kind == "" {
		kind = p.Get("kind")
	}
	return core.Submission{
		Kind:        kind,
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
	}, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string. Numbers keep the
// literal the client sent, so an amount sent as 12.5 reads "12.5".
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFilter reads the category filter from the query string.
func ParseFilter(query url.Values) string {
	return core.NormalizeFilter(sanitizeInput(query.Get("category")))
}

// ParseID reads a transaction id from a path segment. Zero is a valid id
// for records written by the browser widget.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
