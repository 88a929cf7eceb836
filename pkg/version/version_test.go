package version

import (
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
	}{
		{"1.0", 1, 0},
		{"1.1", 1, 1},
		{"2.0", 2, 0},
		{"10.23", 10, 23},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.Major != tt.major {
				t.Errorf("Major = %d, want %d", v.Major, tt.major)
			}
			if v.Minor != tt.minor {
				t.Errorf("Minor = %d, want %d", v.Minor, tt.minor)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"1",
		"abc",
		"1.0.0",
		"1.x",
		"-1.0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestSchemaVersion_String(t *testing.T) {
	v, err := Parse("10.23")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "10.23" {
		t.Errorf("String() = %q, want %q", v.String(), "10.23")
	}
}

func TestCompatible(t *testing.T) {
	v1, _ := Parse("1.0")
	v11, _ := Parse("1.1")
	v2, _ := Parse("2.0")

	if !v1.Compatible(v11) || !v11.Compatible(v1) {
		t.Error("1.0 and 1.1 should be compatible")
	}
	if v1.Compatible(v2) || v2.Compatible(v1) {
		t.Error("1.0 and 2.0 should NOT be compatible")
	}
}

func TestCheckDocument(t *testing.T) {
	tests := []struct {
		declared string
		wantErr  bool
	}{
		{"", false},
		{"1.0", false},
		{"1.4", false},
		{"2.0", true},
		{"one", true},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			err := CheckDocument(tt.declared)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckDocument(%q) error = %v, wantErr %v", tt.declared, err, tt.wantErr)
			}
		})
	}
}

func TestMajorFromTag(t *testing.T) {
	tests := []struct {
		input   string
		want    uint16
		wantErr bool
	}{
		{"pca9575gen/1", 1, false},
		{"pca9575gen/2", 2, false},
		{"pca9575gen/", 0, true},
		{"pca9575gen/abc", 0, true},
		{"esphome/1", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := MajorFromTag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("MajorFromTag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("MajorFromTag(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCurrentTag(t *testing.T) {
	if got := CurrentTag(); got != "pca9575gen/1" {
		t.Errorf("CurrentTag() = %q, want %q", got, "pca9575gen/1")
	}
	if got := Tag(3); got != "pca9575gen/3" {
		t.Errorf("Tag(3) = %q, want %q", got, "pca9575gen/3")
	}
}
