package utils

import "testing"

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		valid    bool
	}{
		{"0601020304", "0601020304", true},
		{"06 01 02 03 04", "0601020304", true},
		{"06.01.02.03.04", "0601020304", true},
		{"+33601020304", "0601020304", true},
		{"+33 6 01 02 03 04", "0601020304", true},
		{"0033601020304", "0601020304", true},
		{"601020304", "601020304", false},
		{"06010203", "06010203", false},
		{"060102030405", "060102030405", false},
		{"", "", false},
		{"abc", "", false},
	}

	for _, test := range tests {
		result, valid := NormalizePhoneNumber(test.input)
		if valid != test.valid {
			t.Errorf("expected valid=%v for input %q, got %v", test.valid, test.input, valid)
		}
		if result != test.expected {
			t.Errorf("expected %q for input %q, got %q", test.expected, test.input, result)
		}
	}
}
