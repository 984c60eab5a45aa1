package topics

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in       string
		maxWords int
		want     string
	}{
		{"TIL that octopuses have three hearts!", 4, "TIL that octopuses have"},
		{"What's the *weirdest* fact you know?", 6, "Whats the weirdest fact you know"},
		{"short", 4, "short"},
		{"!!!", 4, ""},
	}
	for _, c := range cases {
		if got := sanitize(c.in, c.maxWords); got != c.want {
			t.Errorf("sanitize(%q, %d) = %q, want %q", c.in, c.maxWords, got, c.want)
		}
	}
}
