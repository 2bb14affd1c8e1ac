package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadRule      = errors.New("malformed response rule")
	ErrPathNotFound = errors.New("response path not found")
	ErrNotAString   = errors.New("response value is not a string")
)

// segment is one step of a response rule: a field name, optionally followed
// by a single array index ("choices[0]").
type segment struct {
	field string
	index int
	// indexed distinguishes "field" from "field[0]".
	indexed bool
}

func parseRule(rule string) ([]segment, error) {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "$.")
	if rule == "" {
		return nil, fmt.Errorf("%w: empty rule", ErrBadRule)
	}

	parts := strings.Split(rule, ".")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseSegment(part string) (segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" {
			return segment{}, fmt.Errorf("%w: empty segment", ErrBadRule)
		}
		return segment{field: part}, nil
	}

	field := part[:open]
	rest := part[open:]
	if field == "" || !strings.HasSuffix(rest, "]") {
		return segment{}, fmt.Errorf("%w: segment %q", ErrBadRule, part)
	}
	idx, err := strconv.Atoi(rest[1 : len(rest)-1])
	if err != nil || idx < 0 {
		return segment{}, fmt.Errorf("%w: segment %q", ErrBadRule, part)
	}
	return segment{field: field, index: idx, indexed: true}, nil
}

// Extract resolves a dot-delimited path rule against a raw JSON completion
// response and returns the string it points at.
func Extract(raw json.RawMessage, rule string) (string, error) {
	segments, err := parseRule(rule)
	if err != nil {
		return "", err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode completion response failed: %w", err)
	}

	current := doc
	for i, seg := range segments {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("%w: %q is not an object", ErrPathNotFound, seg.field)
		}
		value := obj[seg.field]
		if seg.indexed {
			arr, ok := value.([]interface{})
			if !ok {
				return "", fmt.Errorf("%w: %q is not an array", ErrPathNotFound, seg.field)
			}
			if seg.index >= len(arr) {
				return "", fmt.Errorf("%w: index %d out of range for %q", ErrPathNotFound, seg.index, seg.field)
			}
			value = arr[seg.index]
		}
		// A null or missing intermediate with segments left to walk is a
		// broken path; a null leaf falls through to the string check.
		if value == nil && i < len(segments)-1 {
			return "", fmt.Errorf("%w: %q resolved to null", ErrPathNotFound, seg.field)
		}
		current = value
	}

	text, ok := current.(string)
	if !ok {
		return "", ErrNotAString
	}
	return text, nil
}
