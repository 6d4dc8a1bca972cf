package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyFixture = `Results of the web search:

### 1. **Title**: A **URL**: http://x **Summary**: s1
### 2. **Title**: B
**URL**: [link](https://patents.example.com/patent/42)
**Summary**: s2 spans
two lines
`

func TestIsLegacyResearchBlob(t *testing.T) {
	assert.True(t, IsLegacyResearchBlob(LegacyResearchTitle, legacyFixture))
	assert.False(t, IsLegacyResearchBlob("Something else", legacyFixture))
	assert.False(t, IsLegacyResearchBlob(LegacyResearchTitle, "plain summary"))
}

func TestParseLegacyResearch(t *testing.T) {
	findings := ParseLegacyResearch(legacyFixture)
	require.Len(t, findings, 2)

	assert.Equal(t, "A", findings[0].Title)
	assert.Equal(t, "http://x", findings[0].URL)
	assert.Equal(t, "s1", findings[0].Summary)

	assert.Equal(t, "B", findings[1].Title)
	assert.Equal(t, "https://patents.example.com/patent/42", findings[1].URL)
	assert.Equal(t, "s2 spans\ntwo lines", findings[1].Summary)
}

func TestParseLegacyResearch_DropsEmptyBlocks(t *testing.T) {
	findings := ParseLegacyResearch("### 1. nothing useful here\n### 2. **Title**: Only title")
	require.Len(t, findings, 1)
	assert.Equal(t, "Only title", findings[0].Title)
	assert.Empty(t, findings[0].URL)
}

func TestFindingFromLegacy(t *testing.T) {
	in := FindingFromLegacy(LegacyFinding{Title: "B", URL: "https://www.patents.example.com/patent/42", Summary: "s"})
	assert.Equal(t, "patent", in.SourceType)
	assert.Equal(t, "patents.example.com", in.ProviderMentioned)
	assert.Equal(t, DefaultRelevance, in.RelevanceScore)
}
