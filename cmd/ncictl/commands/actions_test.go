package commands

import "testing"

func TestParseHexByte(t *testing.T) {
	cases := []struct {
		in      string
		want    uint8
		wantErr bool
	}{
		{"a0", 0xa0, false},
		{"A0", 0xa0, false},
		{"0", 0x00, false},
		{"f", 0x0f, false},
		{"ff", 0xff, false},
		{"zz", 0, true},
		{"abc", 0, true},
	}

	for _, c := range cases {
		got, err := parseHexByte(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseHexByte(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseHexByte(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseHexByte(%q) = 0x%02x, want 0x%02x", c.in, got, c.want)
		}
	}
}

func TestParseDecByte(t *testing.T) {
	cases := []struct {
		in      string
		want    uint8
		wantErr bool
	}{
		{"0", 0, false},
		{"255", 255, false},
		{"42", 42, false},
		{"256", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, c := range cases {
		got, err := parseDecByte(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseDecByte(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseDecByte(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseDecByte(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
