// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Write endpoints accept either a JSON object or a form-encoded body.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"butce/internal/core"
)

// maxBodyBytes caps write request bodies.
const maxBodyBytes = 64 << 10

// Body field names accepted by the write endpoints.
const (
	ParamAmount      = "amount"
	ParamCategory    = "category"
	ParamDate        = "date"
	ParamDescription = "description"
	ParamName        = "name"
	ParamType        = "type"
	ParamFilter      = "category"
)

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
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

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.raw(key))
}

// GetName returns a category name with control characters removed. Unlike
// Get it keeps surrounding whitespace.
func (p *RequestBodyParser) GetName(key string) string {
	return stripControl(p.raw(key))
}

func (p *RequestBodyParser) raw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// EntryInput reads an entry form. A date that does not parse is a validation
// error; a missing one is left zero for Validate to report.
func (p *RequestBodyParser) EntryInput() (core.EntryInput, error) {
	in := core.EntryInput{
		Amount:      p.Get(ParamAmount),
		Category:    p.GetName(ParamCategory),
		Description: p.Get(ParamDescription),
	}
	if raw := p.Get(ParamDate); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return in, core.ValidationError(err)
		}
		in.Date = d
	}
	return in, nil
}

// parseDate accepts a calendar day (YYYY-MM-DD, taken in the display zone)
// or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if d, err := core.ParseDay(s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return d, nil
	}
	return time.Time{}, core.ErrInvalidDate
}
