package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hivseq/polyscan/internal/region"
)

func TestRuns(t *testing.T) {
	tests := []struct {
		name   string
		seq    string
		symbol byte
		minLen int
		want   []Window
	}{
		{"none", "ACGTACGT", 'C', 5, nil},
		{"single run", "AACCCCCAA", 'C', 5, []Window{{Start: 2, End: 7, Count: 5}}},
		{"long run is maximal", "CCCCCCCCCCCC", 'C', 5, []Window{{Start: 0, End: 12, Count: 12}}},
		{"short run ignored", "CCCCACCCCC", 'C', 5, []Window{{Start: 5, End: 10, Count: 5}}},
		{"lower case", "ttcccccg", 'C', 5, []Window{{Start: 2, End: 7, Count: 5}}},
		{"two runs", "AAAGAAA", 'A', 3, []Window{{Start: 0, End: 3, Count: 3}, {Start: 4, End: 7, Count: 3}}},
		{"zero min length treated as one", "GAG", 'A', 0, []Window{{Start: 1, End: 2, Count: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Runs([]byte(tt.seq), tt.symbol, tt.minLen))
		})
	}
}

func TestRunRegions(t *testing.T) {
	got := RunRegions("HXB2", []byte("ggcccccttCCCCCC"), 'c', 5)
	assert.Equal(t, []region.Region{
		{Name: "HXB2", Start: 2, End: 7, Sequence: "CCCCC", Count: 5, Windows: 1},
		{Name: "HXB2", Start: 9, End: 15, Sequence: "CCCCCC", Count: 6, Windows: 1},
	}, got)
}
