package insights

import (
	"strings"
	"testing"

	"shoptrends/domain/dataset"
	"shoptrends/internal/testkit"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
)

func TestKeyFindings(t *testing.T) {
	md := KeyFindings(dataset.FullView(testkit.ScenarioDataset()))

	assert.Contains(t, md, "**2** customers")
	assert.Contains(t, md, "**$75.00**")
	assert.Contains(t, md, "**Footwear** has the highest average spend at $100.00")
	assert.Contains(t, md, "Female customers spend 100.0% more than male customers")
	assert.Contains(t, md, "Discounted purchases average $50.00 against $100.00")
}

func TestCategorySeason(t *testing.T) {
	md := CategorySeason(dataset.FullView(testkit.ScenarioDataset()))

	assert.Contains(t, md, "**Footwear in Winter** at $100.00")
	assert.Contains(t, md, "**Clothing in Summer** at $50.00")
	assert.Contains(t, md, "Winter is the strongest season overall")
	assert.Contains(t, md, "Clothing sells best in Summer.")
}

func TestEmptyViewText(t *testing.T) {
	empty := dataset.NewView(testkit.ScenarioDataset(), roaring.New())
	assert.Equal(t, NoMatches, KeyFindings(empty))
	assert.Equal(t, NoMatches, CategorySeason(empty))
}

func TestNewTextRendersHTML(t *testing.T) {
	text := NewText("key_findings_summary", "- **bold** item\n")
	assert.Equal(t, "key_findings_summary", text.Slot)
	assert.True(t, strings.Contains(text.HTML, "<strong>bold</strong>"), text.HTML)
	assert.Contains(t, text.HTML, "<li>")
}
