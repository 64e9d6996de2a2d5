package chat

import (
	"strings"
	"testing"

	"github.com/nebulachat/nebula/internal/config"
)

func TestMentionPattern(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"hey @ana look", []string{"@ana"}},
		{"@ana @bo both", []string{"@ana", "@bo"}},
		{"email me@example.com", []string{"@example"}},
		{"no mentions here", nil},
		{"@ alone is not a mention", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := mentionPattern.FindAllString(tt.text, -1)
			if len(got) != len(tt.want) {
				t.Fatalf("matches = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("matches[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"one character over", 10, "one chara…"},
		{"unbounded", 0, "unbounded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := truncateLabel(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncateLabel(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestFormatReactions(t *testing.T) {
	m := &Model{theme: themeFor(config.ThemeDark)}

	tests := []struct {
		name      string
		reactions map[string][]string
		contains  []string
		empty     bool
	}{
		{"nil map", nil, nil, true},
		{"single reactor", map[string][]string{"👍": {"bob"}}, []string{"👍 1", "(bob)"}, false},
		{"multiple reactors", map[string][]string{"❤️": {"ana", "bob"}}, []string{"❤️ 2", "(ana, bob)"}, false},
		{"two emojis", map[string][]string{"👍": {"bob"}, "🎉": {"ana"}}, []string{"👍 1", "🎉 1"}, false},
		{"all reactors removed", map[string][]string{"👍": {}}, nil, true},
		{"empty set beside live one", map[string][]string{"👍": {"bob"}, "🔥": {}}, []string{"👍 1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.formatReactions(tt.reactions)
			if tt.empty {
				if got != "" {
					t.Errorf("formatReactions = %q, want empty", got)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatReactions = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestFormatReactionsOmitsEmptySet(t *testing.T) {
	m := &Model{theme: themeFor(config.ThemeDark)}
	got := m.formatReactions(map[string][]string{"👍": {"bob"}, "🔥": {}})
	if strings.Contains(got, "🔥") {
		t.Errorf("formatReactions = %q, emoji with no reactors rendered", got)
	}
}

func TestColorForUserStable(t *testing.T) {
	first := colorForUser("ana")
	second := colorForUser("ana")
	if first != second {
		t.Error("color should be stable for a given user")
	}
}
