package main

import "testing"

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readUIMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShouldUseTUI(t *testing.T) {
	if shouldUseTUI(uiModeOn, true) {
		t.Fatalf("quiet must disable the UI")
	}
	if !shouldUseTUI(uiModeOn, false) {
		t.Fatalf("--ui on must enable the UI")
	}
	if shouldUseTUI(uiModeOff, false) {
		t.Fatalf("--ui off must disable the UI")
	}
}
