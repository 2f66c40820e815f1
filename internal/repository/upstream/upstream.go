// Package upstream implements the repositories on top of the clinic REST API.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
)

// HeaderClinicID carries the selected clinic to the API.
const HeaderClinicID = "X-Clinic-ID"

// API is the part of apiclient.Client the repositories use.
type API interface {
	Get(ctx context.Context, path string, query map[string]string, out interface{}, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body, out interface{}, opts ...apiclient.RequestOption) error
	Patch(ctx context.Context, path string, body, out interface{}, opts ...apiclient.RequestOption) error
}

func sessionOpts(sess *model.Session) []apiclient.RequestOption {
	return []apiclient.RequestOption{
		apiclient.WithBearer(sess.AccessToken),
		apiclient.WithHeader(HeaderClinicID, sess.ClinicID),
	}
}

func translate(err error) error {
	if apiclient.IsNotFound(err) {
		return fmt.Errorf("%w: %v", repository.ErrNotFound, err)
	}
	return err
}

var listKeys = []string{"appointments", "patients", "doctors", "nurses", "services", "items", "results", "docs", "data"}

// decodeList accepts a bare array, {"data": [...]}, or an object holding the
// array under a well-known key, optionally next to a total count.
func decodeList(body []byte, out interface{}) (int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return 0, nil
	}
	if body[0] == '[' {
		if err := json.Unmarshal(body, out); err != nil {
			return 0, fmt.Errorf("failed to decode list: %w", err)
		}
		return -1, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0, fmt.Errorf("failed to decode list: %w", err)
	}

	total := totalOf(obj)
	for _, key := range listKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			// {"data": {"appointments": [...], "total": n}}
			inner, err := decodeList(raw, out)
			if total < 0 {
				total = inner
			}
			return total, err
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return 0, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return total, nil
	}
	return 0, errors.New("response has no list")
}

// totalOf returns the total count in a list envelope, or -1 when absent.
func totalOf(obj map[string]json.RawMessage) int {
	for _, key := range []string{"total", "totalCount", "total_count", "count"} {
		var n int
		if raw, ok := obj[key]; ok && json.Unmarshal(raw, &n) == nil {
			return n
		}
	}
	for _, key := range []string{"pagination", "meta"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			if n := totalOf(nested); n >= 0 {
				return n
			}
		}
	}
	return -1
}
