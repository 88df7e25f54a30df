package app_test

import (
	"errors"
	"testing"

	"bizreviews/internal/app"
	"bizreviews/internal/domain"
)

func TestParseBusinessInput(t *testing.T) {
	full := `{"owner_id":1,"name":"Cafe","street_address":"1 Main","city":"X","state":"CA","zip_code":"90001"}`
	in, err := app.ParseBusinessInput([]byte(full))
	if err != nil {
		t.Fatalf("full body: %v", err)
	}
	if in.OwnerID != 1 || in.ZipCode != "90001" {
		t.Fatalf("unexpected input %+v", in)
	}

	cases := []struct {
		name string
		body string
		want error
	}{
		{"missing zip", `{"owner_id":1,"name":"Cafe","street_address":"1 Main","city":"X","state":"CA"}`, domain.ErrMissingField},
		{"empty object", `{}`, domain.ErrMissingField},
		{"not json", `owner_id=1`, domain.ErrMalformedBody},
		{"array", `[]`, domain.ErrMalformedBody},
		{"null", `null`, domain.ErrMalformedBody},
		{"wrong type", `{"owner_id":"x","name":"Cafe","street_address":"1 Main","city":"X","state":"CA","zip_code":"1"}`, domain.ErrMalformedBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := app.ParseBusinessInput([]byte(tc.body)); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseBusinessInput_NullCountsAsPresent(t *testing.T) {
	body := `{"owner_id":1,"name":null,"street_address":"1 Main","city":"X","state":"CA","zip_code":"1"}`
	in, err := app.ParseBusinessInput([]byte(body))
	if err != nil {
		t.Fatalf("null value should satisfy presence: %v", err)
	}
	if in.Name != "" {
		t.Fatalf("name = %q", in.Name)
	}
}

func TestParseReviewInput(t *testing.T) {
	in, err := app.ParseReviewInput([]byte(`{"user_id":7,"business_id":3,"stars":0}`))
	if err != nil {
		t.Fatalf("zero stars is present: %v", err)
	}
	if in.ReviewText != nil || in.Stars != 0 {
		t.Fatalf("unexpected input %+v", in)
	}

	in, err = app.ParseReviewInput([]byte(`{"user_id":7,"business_id":3,"stars":4.5,"review_text":"nice"}`))
	if err != nil || in.ReviewText == nil || *in.ReviewText != "nice" || in.Stars != 4.5 {
		t.Fatalf("with text: %+v %v", in, err)
	}

	if _, err := app.ParseReviewInput([]byte(`{"user_id":7,"stars":1}`)); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("missing business_id: %v", err)
	}
}

func TestParseReviewPatch(t *testing.T) {
	p, err := app.ParseReviewPatch([]byte(`{"stars":3}`))
	if err != nil || p.HasText || p.Stars != 3 {
		t.Fatalf("stars only: %+v %v", p, err)
	}

	p, err = app.ParseReviewPatch([]byte(`{"stars":3,"review_text":null}`))
	if err != nil || !p.HasText || p.ReviewText != nil {
		t.Fatalf("explicit null: %+v %v", p, err)
	}

	p, err = app.ParseReviewPatch([]byte(`{"stars":3,"review_text":"hi","user_id":99}`))
	if err != nil || !p.HasText || p.ReviewText == nil || *p.ReviewText != "hi" {
		t.Fatalf("with text: %+v %v", p, err)
	}

	if _, err := app.ParseReviewPatch([]byte(`{"review_text":"hi"}`)); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("missing stars: %v", err)
	}
	if _, err := app.ParseReviewPatch([]byte(`{"stars":"five"}`)); !errors.Is(err, domain.ErrMalformedBody) {
		t.Fatalf("string stars: %v", err)
	}
}
