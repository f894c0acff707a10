package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Class  string `validate:"vehicle_class"`
	Source string `validate:"data_source"`
}

func TestCustomValidations(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"empty allowed", sample{}, false},
		{"known values", sample{Class: "heavy", Source: "field_trial"}, false},
		{"unknown class", sample{Class: "bus"}, true},
		{"unknown source", sample{Source: "guess"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
