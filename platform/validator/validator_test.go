package validator

import "testing"

type submitForm struct {
	Name  string `json:"name" validate:"notblank,max=10"`
	Email string `json:"email" validate:"required,email"`
}

func TestDetailsUsesJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(submitForm{Name: "   ", Email: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	details := Details(err)
	if details["name"] != "notblank" {
		t.Fatalf("expected notblank on name, got %v", details)
	}
	if details["email"] != "email" {
		t.Fatalf("expected email rule on email, got %v", details)
	}
}

func TestValidFormPasses(t *testing.T) {
	if err := New().Struct(submitForm{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
