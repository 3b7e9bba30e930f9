package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "empty", s: "", want: ""},
		{name: "blank", s: " \t\n ", want: ""},
		{name: "trim", s: "  Jane Doe ", want: "Jane Doe"},
		{name: "collapse", s: "Grade \t  5", want: "Grade 5"},
		{name: "lower", s: " BURSAR ", lower: true, want: "bursar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("CleanString() = %q; want %q", got, tt.want)
			}
		})
	}
}
