package visualization

import (
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	t.Setenv("BROWSER", "")

	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"linux", "xdg-open", []string{"http://x"}, false},
		{"freebsd", "xdg-open", []string{"http://x"}, false},
		{"darwin", "open", []string{"http://x"}, false},
		{"windows", "cmd", []string{"/c", "start", "http://x"}, false},
		{"plan9", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "http://x")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("got %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestBrowserCommand_EnvOverride(t *testing.T) {
	t.Setenv("BROWSER", "firefox")

	name, args, err := browserCommand("plan9", "http://x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "firefox" || !slices.Equal(args, []string{"http://x"}) {
		t.Errorf("got %s %v", name, args)
	}
}
