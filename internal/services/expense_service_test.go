package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anscli/internal/config"
)

const aggregatedFixture = `Razao_Social,UF,Total_Despesas,Media_Trimestral,Desvio_Padrao
OPERADORA ALFA,SP,900000,300000,1000
OPERADORA BETA,RJ,500000,250000,500
OPERADORA GAMA,SP,100000,100000,0
PLANO DELTA,MG,50000,50000,0
`

// serviceWithDataset returns a service whose aggregated CSV contains the
// given content; empty content means the file does not exist.
func serviceWithDataset(t *testing.T, content string) *ExpenseService {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	if content != "" {
		require.NoError(t, os.WriteFile(cfg.AggregatedCSVPath(), []byte(content), 0o644))
	}
	return NewExpenseService(cfg, nil)
}

func TestListFirstPage(t *testing.T) {
	svc := serviceWithDataset(t, aggregatedFixture)

	page, err := svc.List(context.Background(), 1, 2, "")
	require.NoError(t, err)

	require.Len(t, page.Data, 2)
	assert.Equal(t, "OPERADORA ALFA", page.Data[0].RazaoSocial)
	assert.Equal(t, "OPERADORA BETA", page.Data[1].RazaoSocial)
	assert.Equal(t, 4, page.Meta.Total)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 2, page.Meta.Limit)
	assert.Equal(t, 2, page.Meta.PagesTotal)
	assert.False(t, page.Meta.Placeholder)
}

func TestListLastPartialPage(t *testing.T) {
	svc := serviceWithDataset(t, aggregatedFixture)

	page, err := svc.List(context.Background(), 2, 3, "")
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, "PLANO DELTA", page.Data[0].RazaoSocial)
	assert.Equal(t, 2, page.Meta.PagesTotal)
}

func TestListPageBeyondEnd(t *testing.T) {
	svc := serviceWithDataset(t, aggregatedFixture)

	page, err := svc.List(context.Background(), 10, 10, "")
	require.NoError(t, err)

	assert.Empty(t, page.Data)
	assert.Equal(t, 4, page.Meta.Total)
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	svc := serviceWithDataset(t, aggregatedFixture)

	page, err := svc.List(context.Background(), 1, 10, "operadora")
	require.NoError(t, err)

	require.Len(t, page.Data, 3)
	assert.Equal(t, 3, page.Meta.Total)

	page, err = svc.List(context.Background(), 1, 10, "DELTA")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "PLANO DELTA", page.Data[0].RazaoSocial)
}

func TestListMissingDatasetServesPlaceholder(t *testing.T) {
	svc := serviceWithDataset(t, "")

	page, err := svc.List(context.Background(), 1, 10, "")
	require.NoError(t, err)

	require.NotEmpty(t, page.Data)
	assert.True(t, page.Meta.Placeholder)
	assert.Contains(t, page.Data[0].RazaoSocial, "PLACEHOLDER")
}

func TestStatsComputesDistribution(t *testing.T) {
	svc := serviceWithDataset(t, aggregatedFixture)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1550000, stats.TotalGeral, 1e-9)
	assert.False(t, stats.Placeholder)

	require.Len(t, stats.DistribuicaoUF, 3)
	assert.Equal(t, "SP", stats.DistribuicaoUF[0].UF, "regions sorted by total, largest first")
	assert.InDelta(t, 1000000, stats.DistribuicaoUF[0].Total, 1e-9)
	assert.Equal(t, "RJ", stats.DistribuicaoUF[1].UF)
	assert.Equal(t, "MG", stats.DistribuicaoUF[2].UF)
}

func TestStatsMissingDatasetIsMarkedPlaceholder(t *testing.T) {
	svc := serviceWithDataset(t, "")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Placeholder)
	assert.NotZero(t, stats.TotalGeral)
}

func TestLoadReplacesUnparsableNumbersWithZero(t *testing.T) {
	svc := serviceWithDataset(t, "Razao_Social,UF,Total_Despesas,Media_Trimestral,Desvio_Padrao\n"+
		"OPERADORA X,SP,NaN,abc,+Inf\n")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGeral)
}

func TestLoadHeaderOnlyDataset(t *testing.T) {
	svc := serviceWithDataset(t, "Razao_Social,UF,Total_Despesas,Media_Trimestral,Desvio_Padrao\n")

	page, err := svc.List(context.Background(), 1, 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, page.Meta.Placeholder, "an empty dataset is real output, not a placeholder")
}

func TestLoadUnreadableDatasetIsAnError(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	// A directory at the dataset path makes the open succeed and the read fail.
	require.NoError(t, os.MkdirAll(cfg.AggregatedCSVPath(), 0o755))

	_, err := NewExpenseService(cfg, nil).Stats(context.Background())
	assert.Error(t, err)
}
