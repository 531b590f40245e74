// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type signupForm struct {
	Name     string `validate:"required,min=1,max=120"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     signupForm
		wantField string
		wantTag   string
	}{
		{
			name:  "valid",
			input: signupForm{Name: "Max", Email: "max@example.com", Password: "hunter22"},
		},
		{
			name:      "missing name",
			input:     signupForm{Email: "max@example.com", Password: "hunter22"},
			wantField: "Name",
			wantTag:   "required",
		},
		{
			name:      "bad email",
			input:     signupForm{Name: "Max", Email: "not-an-email", Password: "hunter22"},
			wantField: "Email",
			wantTag:   "email",
		},
		{
			name:      "short password",
			input:     signupForm{Name: "Max", Email: "max@example.com", Password: "abc"},
			wantField: "Password",
			wantTag:   "min",
		},
		{
			name:      "oversized name",
			input:     signupForm{Name: strings.Repeat("a", 121), Email: "max@example.com", Password: "hunter22"},
			wantField: "Name",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() should fail")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error field/tag = %s/%s, want %s/%s",
					errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&signupForm{})
	if err == nil {
		t.Fatal("ValidateStruct() should fail for empty form")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message == "" {
		t.Error("Message is empty")
	}
	if apiErr.Details == nil {
		t.Error("Details is nil, want field breakdown")
	}
}

func TestTranslateError_Messages(t *testing.T) {
	err := ValidateStruct(&signupForm{Name: "Max", Email: "max@example.com", Password: "abc"})
	if err == nil {
		t.Fatal("ValidateStruct() should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Password") || !strings.Contains(msg, "at least 6") {
		t.Errorf("message = %q, want mention of Password min length", msg)
	}
}
