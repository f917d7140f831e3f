package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/kanban/internal/domain/kanban"
)

func TestReadCodes(t *testing.T) {
	t.Run("from arguments", func(t *testing.T) {
		var out bytes.Buffer
		raw, err := readCodes([]string{"ABC-1", "ABC-2,ABC-3"}, strings.NewReader(""), &out)
		require.NoError(t, err)

		assert.Equal(t, []string{"ABC-1", "ABC-2", "ABC-3"}, kanban.ParseItemCodes(raw))
		assert.Empty(t, out.String())
	})

	t.Run("from prompt", func(t *testing.T) {
		var out bytes.Buffer
		raw, err := readCodes(nil, strings.NewReader("ABC-1, ABC-2\nignored\n"), &out)
		require.NoError(t, err)

		assert.Equal(t, []string{"ABC-1", "ABC-2"}, kanban.ParseItemCodes(raw))
		assert.Equal(t, prompt, out.String())
	})

	t.Run("prompt without newline", func(t *testing.T) {
		raw, err := readCodes(nil, strings.NewReader("ABC-9"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "ABC-9", raw)
	})

	t.Run("empty input", func(t *testing.T) {
		raw, err := readCodes(nil, strings.NewReader(""), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Empty(t, kanban.ParseItemCodes(raw))
	})
}

func TestWriteDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := &kanban.GeneratedDocument{Name: "kanban_cards_20240305_140709.pdf", Data: []byte("%PDF-1.4")}

	path, err := writeDocument(dir, doc)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, doc.Name), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Data, data)
}
