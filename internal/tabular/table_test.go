package tabular

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDecodesLatin1AndNormalizesHeaders(t *testing.T) {
	// 0xC3 is 'Ã' and 0xDA is 'Ú' in ISO 8859-1.
	raw := []byte("reg_ans ; raz\xc3o_social \n123;OPERADORA SA\xdaDE\n")

	table, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, []string{"REG_ANS", "RAZÃO_SOCIAL"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "OPERADORA SAÚDE", Field(table.Rows[0], 1))
}

func TestReadTolerantOfVaryingFieldCounts(t *testing.T) {
	raw := []byte("A;B;C\n1;2;3\nonly-one\n4;5;6;7\n")

	table, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
}

func TestReadEmptyStream(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestIndexExactMatchOnly(t *testing.T) {
	table := &Table{Headers: []string{"REG_ANS", "VL_SALDO_FINAL"}}

	idx, ok := table.Index("VL_SALDO_FINAL")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = table.Index("VL_SALDO")
	assert.False(t, ok)
}

func TestResolveSubstringCandidatesInOrder(t *testing.T) {
	table := &Table{Headers: []string{"REGISTRO_OPERADORA", "CNPJ", "RAZAO_SOCIAL"}}

	idx, ok := table.Resolve("REGISTRO")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = table.Resolve("NOPE", "RAZAO")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = table.Resolve("MODALIDADE")
	assert.False(t, ok)
}

func TestFieldOutOfRange(t *testing.T) {
	row := []string{" a ", "b"}

	assert.Equal(t, "a", Field(row, 0))
	assert.Equal(t, "", Field(row, 5))
	assert.Equal(t, "", Field(row, -1))
}
