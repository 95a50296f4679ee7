package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anscli/pkg/contracts/domain"
)

func record(razao, uf string, valor float64) domain.ConsolidatedRecord {
	return domain.ConsolidatedRecord{RazaoSocial: razao, UF: uf, Valor: valor}
}

func TestAggregateComputesGroupStatistics(t *testing.T) {
	out := Aggregate([]domain.ConsolidatedRecord{
		record("ACME", "SP", 100),
		record("ACME", "SP", 200),
		record("ACME", "SP", 300),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "ACME", out[0].RazaoSocial)
	assert.Equal(t, "SP", out[0].UF)
	assert.InDelta(t, 600, out[0].TotalDespesas, 1e-9)
	assert.InDelta(t, 200, out[0].MediaTrimestral, 1e-9)
	assert.InDelta(t, 100, out[0].DesvioPadrao, 1e-9)
}

func TestAggregateSingleMemberGroupHasZeroStdDev(t *testing.T) {
	out := Aggregate([]domain.ConsolidatedRecord{record("SOLO", "RJ", 50)})

	require.Len(t, out, 1)
	assert.InDelta(t, 50, out[0].TotalDespesas, 1e-9)
	assert.InDelta(t, 50, out[0].MediaTrimestral, 1e-9)
	assert.Zero(t, out[0].DesvioPadrao)
}

func TestAggregateSortsByTotalDescending(t *testing.T) {
	out := Aggregate([]domain.ConsolidatedRecord{
		record("SMALL", "SP", 10),
		record("BIG", "SP", 1000),
		record("MID", "RJ", 500),
	})

	require.Len(t, out, 3)
	assert.Equal(t, "BIG", out[0].RazaoSocial)
	assert.Equal(t, "MID", out[1].RazaoSocial)
	assert.Equal(t, "SMALL", out[2].RazaoSocial)
}

func TestAggregateStableOrderForEqualTotals(t *testing.T) {
	out := Aggregate([]domain.ConsolidatedRecord{
		record("FIRST", "SP", 100),
		record("SECOND", "RJ", 100),
		record("THIRD", "MG", 100),
	})

	require.Len(t, out, 3)
	assert.Equal(t, "FIRST", out[0].RazaoSocial)
	assert.Equal(t, "SECOND", out[1].RazaoSocial)
	assert.Equal(t, "THIRD", out[2].RazaoSocial)
}

func TestAggregateGroupsByOperatorAndRegion(t *testing.T) {
	out := Aggregate([]domain.ConsolidatedRecord{
		record("ACME", "SP", 100),
		record("ACME", "RJ", 40),
		record("ACME", "SP", 60),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "SP", out[0].UF)
	assert.InDelta(t, 160, out[0].TotalDespesas, 1e-9)
	assert.Equal(t, "RJ", out[1].UF)
	assert.InDelta(t, 40, out[1].TotalDespesas, 1e-9)
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
