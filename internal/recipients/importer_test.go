package recipients

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma separated",
			text: "a@example.com, b@example.com,c@example.com",
			want: []string{"a@example.com", "b@example.com", "c@example.com"},
		},
		{
			name: "newlines and noise",
			text: "pega esto: a@example.com\nluego b@example.com\n\nfin",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "lowercases",
			text: "Alice@Example.COM",
			want: []string{"alice@example.com"},
		},
		{
			name: "preserves order and repeats",
			text: "z@example.com a@example.com z@example.com",
			want: []string{"z@example.com", "a@example.com", "z@example.com"},
		},
		{
			name: "no candidates",
			text: "nothing to see here",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCandidates(tt.text))
		})
	}
}

func TestParseCandidatesIdempotent(t *testing.T) {
	text := "a@example.com B@Example.com, c@ex.co\nd@x.io"
	first := ParseCandidates(text)
	second := ParseCandidates(strings.Join(first, "\n"))
	assert.Equal(t, first, second)
}

func TestValidSyntax(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@sub.example.com"}
	invalid := []string{"", "plain", "a@b", "a b@c.co", "a@@b.co", "@b.co"}
	for _, e := range valid {
		assert.True(t, ValidSyntax(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidSyntax(e), e)
	}
}

func TestClassifyPartition(t *testing.T) {
	existing := map[string]bool{"old@example.com": true}
	candidates := []string{
		"new@example.com",
		"new@example.com", // duplicate within batch
		"old@example.com", // already on the list
		"old@example.com", // second occurrence counts as in-batch duplicate
		"broken@",         // malformed
		"also@example.com",
	}
	s := Classify(candidates, existing)

	assert.Equal(t, 6, s.TotalDetected)
	assert.Equal(t, 2, s.Imported)
	assert.Equal(t, 2, s.DuplicatesInBatch)
	assert.Equal(t, 1, s.AlreadyInList)
	assert.Equal(t, 1, s.Malformed)
	assert.Equal(t, s.TotalDetected, s.Imported+s.DuplicatesInBatch+s.AlreadyInList+s.Malformed)
}

func TestClassifyPartitionIsExhaustive(t *testing.T) {
	// Arbitrary mixes must always partition exactly.
	batches := [][]string{
		{},
		{"a@b.co"},
		{"a@b.co", "a@b.co", "a@b.co"},
		{"x", "y", "z"},
		{"a@b.co", "x", "a@b.co", "c@d.io", "c@d.io", "bad@"},
	}
	existing := map[string]bool{"c@d.io": true}
	for _, batch := range batches {
		s := Classify(batch, existing)
		require.Equal(t, len(batch), s.TotalDetected)
		require.Equal(t, s.TotalDetected, s.Imported+s.DuplicatesInBatch+s.AlreadyInList+s.Malformed)
	}
}
