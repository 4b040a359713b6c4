package api

import (
	"encoding/json"
	"fmt"
)

// Shape validators for [Request.Validate]. Each checks the minimal
// structural contract of an endpoint without fully decoding the payload,
// so malformed responses are rejected before any partial data leaks to
// downstream code.

// ExpectArray returns a validator that requires the body to be an object
// carrying a JSON array under key.
func ExpectArray(key string) func([]byte) error {
	return func(body []byte) error {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		raw, ok := envelope[key]
		if !ok {
			return fmt.Errorf("response missing %q array", key)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("response field %q is not an array: %w", key, err)
		}
		return nil
	}
}

// ExpectObject returns a validator that requires the body to carry a JSON
// object under key, itself containing each of the listed fields.
func ExpectObject(key string, fields ...string) func([]byte) error {
	return func(body []byte) error {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		raw, ok := envelope[key]
		if !ok {
			return fmt.Errorf("response missing %q object", key)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("response field %q is not an object: %w", key, err)
		}
		for _, f := range fields {
			if _, ok := obj[f]; !ok {
				return fmt.Errorf("response field %q missing %q", key, f)
			}
		}
		return nil
	}
}

// ExpectKeys returns a validator that requires the body to be an object
// carrying each of the listed top-level keys.
func ExpectKeys(keys ...string) func([]byte) error {
	return func(body []byte) error {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("response is not a JSON object: %w", err)
		}
		for _, k := range keys {
			if _, ok := envelope[k]; !ok {
				return fmt.Errorf("response missing %q", k)
			}
		}
		return nil
	}
}
