package domain

import (
	"errors"
	"testing"
)

func TestAddonRequest_Slug(t *testing.T) {
	tests := []struct {
		name string
		req  AddonRequest
		want string
	}{
		{"token wins", AddonRequest{Title: "Aptechka", AddonToken: "aptechka"}, "aptechka"},
		{"title fallback", AddonRequest{Title: "Aptechka"}, "Aptechka"},
		{"blank token", AddonRequest{Title: "DBM", AddonToken: "  "}, "DBM"},
		{"nothing", AddonRequest{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Slug(); got != tt.want {
				t.Errorf("Slug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddonRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AddonRequest
		wantErr bool
	}{
		{"archive url only", AddonRequest{ArchiveURL: "https://h/wow/addons/x/files", AddonsDirectory: "/tmp/a"}, false},
		{"token", AddonRequest{AddonToken: "x", AddonsDirectory: "/tmp/a"}, false},
		{"title", AddonRequest{Title: "x", AddonsDirectory: "/tmp/a"}, false},
		{"no source", AddonRequest{AddonsDirectory: "/tmp/a"}, true},
		{"no directory", AddonRequest{Title: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestReleaseRow_Qualifies(t *testing.T) {
	tests := []struct {
		name string
		row  ReleaseRow
		want bool
	}{
		{"release 8", ReleaseRow{ReleaseType: "R", GameVersionMajor: 8, HasMajor: true}, true},
		{"release 10", ReleaseRow{ReleaseType: "R", GameVersionMajor: 10, HasMajor: true}, true},
		{"release 7", ReleaseRow{ReleaseType: "R", GameVersionMajor: 7, HasMajor: true}, false},
		{"beta 9", ReleaseRow{ReleaseType: "B", GameVersionMajor: 9, HasMajor: true}, false},
		{"unknown version", ReleaseRow{ReleaseType: "R"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Qualifies("R", 8); got != tt.want {
				t.Errorf("Qualifies() = %v, want %v", got, tt.want)
			}
		})
	}
}
