package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bizreviews/internal/domain"
)

// Required attribute sets per operation.
var (
	BusinessRequired     = []string{propOwnerID, propName, propStreetAddress, propCity, propState, propZipCode}
	ReviewRequired       = []string{propUserID, propBusinessID, propStars}
	ReviewUpdateRequired = []string{propStars}
)

// RequireFields is a presence-only check: every name must be a top-level key.
// Values are not inspected; an explicit null still counts as present.
func RequireFields(body map[string]json.RawMessage, fields ...string) error {
	for _, f := range fields {
		if _, ok := body[f]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrMissingField, f)
		}
	}
	return nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
	}
	if body == nil { // literal null
		return nil, fmt.Errorf("%w: body is null", domain.ErrMalformedBody)
	}
	return body, nil
}

func decodeTyped(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
	}
	return nil
}

func ParseBusinessInput(raw []byte) (domain.BusinessInput, error) {
	body, err := decodeObject(raw)
	if err != nil {
		return domain.BusinessInput{}, err
	}
	if err := RequireFields(body, BusinessRequired...); err != nil {
		return domain.BusinessInput{}, err
	}
	var in domain.BusinessInput
	if err := decodeTyped(raw, &in); err != nil {
		return domain.BusinessInput{}, err
	}
	return in, nil
}

func ParseReviewInput(raw []byte) (domain.ReviewInput, error) {
	body, err := decodeObject(raw)
	if err != nil {
		return domain.ReviewInput{}, err
	}
	if err := RequireFields(body, ReviewRequired...); err != nil {
		return domain.ReviewInput{}, err
	}
	var in domain.ReviewInput
	if err := decodeTyped(raw, &in); err != nil {
		return domain.ReviewInput{}, err
	}
	return in, nil
}

// ParseReviewPatch only insists on stars; review_text is tracked for presence.
func ParseReviewPatch(raw []byte) (domain.ReviewPatch, error) {
	body, err := decodeObject(raw)
	if err != nil {
		return domain.ReviewPatch{}, err
	}
	if err := RequireFields(body, ReviewUpdateRequired...); err != nil {
		return domain.ReviewPatch{}, err
	}
	var p domain.ReviewPatch
	if err := decodeTyped(body[propStars], &p.Stars); err != nil {
		return domain.ReviewPatch{}, err
	}
	if txt, ok := body[propReviewText]; ok {
		p.HasText = true
		if !bytes.Equal(bytes.TrimSpace(txt), []byte("null")) {
			var s string
			if err := decodeTyped(txt, &s); err != nil {
				return domain.ReviewPatch{}, err
			}
			p.ReviewText = &s
		}
	}
	return p, nil
}
