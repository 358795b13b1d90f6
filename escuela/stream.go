package escuela

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// listKeys are the object keys a list may be wrapped in.
var listKeys = map[string]bool{"users": true, "pagos": true, "items": true}

// ItemScanner streams the elements of a JSON list without loading the whole
// body. The list may be the top-level value or wrapped in an object under one
// of the keys used by the paginated endpoints.
type ItemScanner struct {
	dec     *json.Decoder
	closer  io.Closer
	inList  bool
	wrapped bool
	done    bool
	lastErr error
}

func newItemScanner(body io.ReadCloser) (*ItemScanner, error) {
	dec := json.NewDecoder(body)
	tok, err := dec.Token()
	if err != nil {
		_ = body.Close()
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '[' && d != '{') {
		_ = body.Close()
		return nil, fmt.Errorf("unexpected response start: %v", tok)
	}
	return &ItemScanner{dec: dec, closer: body, inList: d == '[', wrapped: d == '{'}, nil
}

// Next decodes the next element into dst. Returns false at the end of the
// list or on error. After false, Err should be checked.
func (s *ItemScanner) Next(dst any) bool {
	if s.done {
		return false
	}
	if !s.inList && !s.seek() {
		return false
	}
	if s.dec.More() {
		if err := s.dec.Decode(dst); err != nil {
			return s.fail(err)
		}
		return true
	}
	// Consume closing ']' and finish.
	_, _ = s.dec.Token()
	s.done = true
	_ = s.Close()
	return false
}

// seek advances to the opening '[' of the first list key in a wrapped body.
func (s *ItemScanner) seek() bool {
	for s.dec.More() {
		tok, err := s.dec.Token()
		if err != nil {
			return s.fail(err)
		}
		key, _ := tok.(string)
		if !listKeys[key] {
			var skip json.RawMessage
			if err := s.dec.Decode(&skip); err != nil {
				return s.fail(err)
			}
			continue
		}
		tok, err = s.dec.Token()
		if err != nil {
			return s.fail(err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return s.fail(fmt.Errorf("unexpected token after %s: %v", key, tok))
		}
		s.inList = true
		return true
	}
	// No list in the object: an empty result.
	s.done = true
	_ = s.Close()
	return false
}

func (s *ItemScanner) fail(err error) bool {
	s.lastErr = err
	s.done = true
	_ = s.Close()
	return false
}

// Err returns the last error encountered by the scanner, if any.
func (s *ItemScanner) Err() error { return s.lastErr }

// Close closes the underlying response body if still open.
func (s *ItemScanner) Close() error {
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}

// StreamMisPagos returns an ItemScanner over the payment history of the
// logged-in student. The caller must Close the scanner when finished.
func (c *Client) StreamMisPagos(ctx context.Context, opts ...CallOption) (*ItemScanner, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	res, err := c.doRequest(ctx, http.MethodGet, "/pago/mis_pagos", h, nil)
	if err != nil {
		return nil, err
	}
	return newItemScanner(res.Body)
}
