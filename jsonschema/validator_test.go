package jsonschema_test

import (
	"testing"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *jsonschema.Validator {
	t.Helper()

	v, err := jsonschema.NewValidator(weekly.DefaultSections(), weekly.DefaultLimits())
	require.NoError(t, err)
	return v
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a well-formed digest", func(t *testing.T) {
		t.Parallel()

		doc := `{"briefing":["Kurz",{"title":"Lang","url":"https://www.finma.ch"}],"sections":[{"name":"FINMA-Updates","items":[{"title":"T","url":"https://www.finma.ch/x","date_iso":"2025-03-10","issuer":"FINMA","summary":"S"}]}]}`

		assert.Empty(t, newValidator(t).Validate(doc))
	})

	t.Run("reports a missing sections key", func(t *testing.T) {
		t.Parallel()

		msgs := newValidator(t).Validate(`{"briefing":[]}`)

		require.NotEmpty(t, msgs)
		assert.Contains(t, msgs[0], "sections")
	})

	t.Run("reports an unknown section name", func(t *testing.T) {
		t.Parallel()

		msgs := newValidator(t).Validate(`{"briefing":[],"sections":[{"name":"Sport","items":[]}]}`)

		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "sections.0.name")
	})

	t.Run("reports a malformed date", func(t *testing.T) {
		t.Parallel()

		msgs := newValidator(t).Validate(`{"briefing":[],"sections":[{"name":"FINMA-Updates","items":[{"title":"T","url":"u","date_iso":"10.03.2025"}]}]}`)

		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "date_iso")
	})

	t.Run("reports too many items", func(t *testing.T) {
		t.Parallel()

		item := `{"title":"T","url":"u"}`
		items := item
		for i := 0; i < weekly.DefaultMaxItems; i++ {
			items += "," + item
		}

		msgs := newValidator(t).Validate(`{"briefing":[],"sections":[{"name":"FINMA-Updates","items":[` + items + `]}]}`)

		assert.NotEmpty(t, msgs)
	})

	t.Run("reports unparseable input", func(t *testing.T) {
		t.Parallel()

		msgs := newValidator(t).Validate(`{not json`)

		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "(root)")
	})
}
