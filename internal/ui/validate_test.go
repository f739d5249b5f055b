package ui

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want string
	}{
		{
			name: "missing start",
			form: Form{Start: "", End: "X", ArrivalTime: "09:00", GettingReady: "10"},
			want: msgMissingFields,
		},
		{
			name: "whitespace only counts as missing",
			form: Form{Start: "A", End: "B", ArrivalTime: "  ", GettingReady: "10"},
			want: msgMissingFields,
		},
		{
			name: "missing prep",
			form: Form{Start: "A", End: "B", ArrivalTime: "09:00"},
			want: msgMissingFields,
		},
		{
			name: "same location",
			form: Form{Start: "A", End: "A", ArrivalTime: "09:00", GettingReady: "10"},
			want: msgSameLocation,
		},
		{
			name: "same location after trim",
			form: Form{Start: " A", End: "A ", ArrivalTime: "09:00", GettingReady: "10"},
			want: msgSameLocation,
		},
		{
			name: "missing wins over same location",
			form: Form{Start: "A", End: "A", ArrivalTime: "09:00"},
			want: msgMissingFields,
		},
		{
			name: "case differs",
			form: Form{Start: "a", End: "A", ArrivalTime: "09:00", GettingReady: "10"},
		},
		{
			name: "valid",
			form: Form{Start: "A", End: "B", ArrivalTime: "09:00", GettingReady: "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Message != tt.want {
				t.Errorf("message = %q, want %q", verr.Message, tt.want)
			}
		})
	}
}
