package enrich

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"isdnews/internal/domain/entity"
)

func teamCodes(teams []entity.Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Code
	}
	return out
}

func TestNextTeam(t *testing.T) {
	active := defaultTeams().teams

	tests := []struct {
		cursor string
		want   string
	}{
		{"", "dev"},
		{"dev", "ba"},
		{"ba", "system"},
		{"system", "dev"},
		{"retired", "dev"},
	}
	for _, tt := range tests {
		got, err := NextTeam(tt.cursor, active)
		if err != nil {
			t.Fatalf("NextTeam(%q): %v", tt.cursor, err)
		}
		if got.Code != tt.want {
			t.Errorf("NextTeam(%q) = %q, want %q", tt.cursor, got.Code, tt.want)
		}
	}
}

func TestNextTeam_NoActiveTeams(t *testing.T) {
	if _, err := NextTeam("dev", nil); !errors.Is(err, ErrNoActiveTeams) {
		t.Errorf("err = %v, want ErrNoActiveTeams", err)
	}
}

func TestNextTeam_FullCycleVisitsEveryTeamOnce(t *testing.T) {
	active := defaultTeams().teams
	seen := map[string]int{}
	cursor := "system"
	for range active {
		next, err := NextTeam(cursor, active)
		if err != nil {
			t.Fatal(err)
		}
		seen[next.Code]++
		cursor = next.Code
	}
	if diff := cmp.Diff(map[string]int{"dev": 1, "ba": 1, "system": 1}, seen); diff != "" {
		t.Errorf("visits mismatch (-want +got):\n%s", diff)
	}
}

func TestRotation(t *testing.T) {
	active := defaultTeams().teams

	tests := []struct {
		cursor string
		want   []string
	}{
		{"", []string{"dev", "ba", "system"}},
		{"dev", []string{"ba", "system", "dev"}},
		{"system", []string{"dev", "ba", "system"}},
		{"gone", []string{"dev", "ba", "system"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, teamCodes(Rotation(tt.cursor, active))); diff != "" {
			t.Errorf("Rotation(%q) mismatch (-want +got):\n%s", tt.cursor, diff)
		}
	}
	if Rotation("dev", nil) != nil {
		t.Error("empty rotation should be nil")
	}
}

func TestRotation_SingleTeam(t *testing.T) {
	one := []entity.Team{{Code: "dev", Active: true}}
	if diff := cmp.Diff([]string{"dev"}, teamCodes(Rotation("dev", one))); diff != "" {
		t.Error(diff)
	}
}
