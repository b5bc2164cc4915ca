package lm

import (
	"testing"
	"time"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		raw  string
		want Plan
		ok   bool
	}{
		{"single", PlanSingle, true},
		{"multi", PlanMulti, true},
		{"needs_calc", PlanNeedsCalc, true},
		{"needs_sql", PlanNeedsSQL, true},
		{"not_answerable", PlanNotAnswerable, true},
		{"", "", false},
		{"maybe", "", false},
		{"Single", "", false}, // callers lowercase before parsing
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePlan(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParsePlan(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseStringArray(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"plain", `["a", "b"]`, []string{"a", "b"}, false},
		{"fenced", "```json\n[\"one claim\"]\n```", []string{"one claim"}, false},
		{"empty array", `[]`, nil, false},
		{"prose", "I cannot extract claims.", nil, true},
		{"object", `{"claims": []}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStringArray(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseSupport(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		supported   bool
		probability float64
		wantErr     bool
	}{
		{"yes", `{"support": "yes", "prob": 0.9}`, true, 0.9, false},
		{"no", `{"support": "no", "prob": 0.2}`, false, 0.2, false},
		{"case insensitive", `{"support": "Yes", "prob": 0.6}`, true, 0.6, false},
		{"fenced", "```json\n{\"support\": \"yes\", \"prob\": 1}\n```", true, 1, false},
		{"missing fields", `{}`, false, 0, false},
		{"prose", "the context supports it", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSupport(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Supported != tt.supported || got.Probability != tt.probability {
				t.Errorf("got %+v, want supported=%v prob=%v", got, tt.supported, tt.probability)
			}
		})
	}
}

func TestBackoffDoubles(t *testing.T) {
	base := 2 * time.Second
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := backoff(base, i+1); got != w {
			t.Errorf("backoff(attempt %d) = %v, want %v", i+1, got, w)
		}
	}
}
