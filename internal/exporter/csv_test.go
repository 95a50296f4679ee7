package exporter

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anscli/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteConsolidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "consolidado_despesas.csv")

	err := NewWriter(nil).WriteConsolidated(path, []domain.ConsolidatedRecord{
		{
			CNPJ:        "11444777000161",
			RazaoSocial: "ACME SAUDE",
			RegistroANS: "111",
			Modalidade:  "Medicina de Grupo",
			UF:          "SP",
			Valor:       1234.56,
			CNPJValido:  true,
		},
	})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"CNPJ", "RazaoSocial", "RegistroANS", "Modalidade", "UF", "Valor"}, rows[0])
	assert.Equal(t, []string{"11444777000161", "ACME SAUDE", "111", "Medicina de Grupo", "SP", "1234.56"}, rows[1])
}

func TestWriteConsolidatedCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "out.csv")

	require.NoError(t, NewWriter(nil).WriteConsolidated(path, nil))

	rows := readCSV(t, path)
	require.Len(t, rows, 1, "empty dataset still produces a header-only file")
}

func TestWriteAggregated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "despesas_agregadas.csv")

	err := NewWriter(nil).WriteAggregated(path, []domain.ExpenseStat{
		{RazaoSocial: "ACME SAUDE", UF: "SP", TotalDespesas: 600, MediaTrimestral: 200, DesvioPadrao: 100},
		{RazaoSocial: "PLANO LESTE", UF: "RJ", TotalDespesas: 50, MediaTrimestral: 50, DesvioPadrao: 0},
	})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Razao_Social", "UF", "Total_Despesas", "Media_Trimestral", "Desvio_Padrao"}, rows[0])
	assert.Equal(t, []string{"ACME SAUDE", "SP", "600", "200", "100"}, rows[1])
	assert.Equal(t, []string{"PLANO LESTE", "RJ", "50", "50", "0"}, rows[2])
}

func TestWriteZipArchive(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "consolidado_despesas.csv")
	zipPath := filepath.Join(dir, "consolidado_despesas.zip")
	require.NoError(t, os.WriteFile(srcPath, []byte("CNPJ,Valor\n1,2\n"), 0o644))

	require.NoError(t, NewWriter(nil).WriteZipArchive(zipPath, srcPath, "consolidado_despesas.csv"))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	assert.Equal(t, "consolidado_despesas.csv", zr.File[0].Name)

	member, err := zr.File[0].Open()
	require.NoError(t, err)
	defer member.Close()

	content, err := io.ReadAll(member)
	require.NoError(t, err)
	assert.Equal(t, "CNPJ,Valor\n1,2\n", string(content))
}

func TestWriteZipArchiveMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := NewWriter(nil).WriteZipArchive(filepath.Join(dir, "out.zip"), filepath.Join(dir, "missing.csv"), "x.csv")
	assert.Error(t, err)
}
