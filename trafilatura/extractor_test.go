package trafilatura_test

import (
	"testing"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/goquery"
	"github.com/iguv/weekly/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure SnippetExtractor implements weekly.SnippetExtractor at compile time.
var _ weekly.SnippetExtractor = (*trafilatura.SnippetExtractor)(nil)

const article = `<!DOCTYPE html>
<html>
<head><title>FINMA publiziert Aufsichtsmitteilung</title></head>
<body>
<nav><a href="/">Home</a> <a href="/news">News</a></nav>
<main>
<h1>FINMA publiziert Aufsichtsmitteilung</h1>
<p>Die Eidgenössische Finanzmarktaufsicht FINMA hat heute eine Aufsichtsmitteilung zu den Risiken im Bereich der Geldwäscherei veröffentlicht. Sie richtet sich an alle Vermögensverwalter und Trustees.</p>
<p>Die Mitteilung fasst die Erkenntnisse aus der Aufsichtstätigkeit der letzten zwei Jahre zusammen und nennt konkrete Erwartungen an die Institute.</p>
<p>Weitere Informationen finden Sie im Anhang der Mitteilung, der auch eine Checkliste enthält.</p>
</main>
<footer>© FINMA</footer>
</body>
</html>`

func TestSnippetExtractor_ExtractSnippet(t *testing.T) {
	t.Parallel()

	t.Run("returns the lead of the main content", func(t *testing.T) {
		t.Parallel()

		ext := trafilatura.NewSnippetExtractor(goquery.NewSnippetExtractor())

		got, err := ext.ExtractSnippet(article, 1000)

		require.NoError(t, err)
		assert.Contains(t, got, "Aufsichtsmitteilung zu den Risiken")
		assert.NotContains(t, got, "© FINMA")
	})

	t.Run("respects the character budget", func(t *testing.T) {
		t.Parallel()

		ext := trafilatura.NewSnippetExtractor(goquery.NewSnippetExtractor())

		got, err := ext.ExtractSnippet(article, 50)

		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(got)), 50)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewSnippetExtractor(goquery.NewSnippetExtractor()).ExtractSnippet("", 100)

		assert.Equal(t, weekly.EINVALID, weekly.ErrorCode(err))
	})
}
