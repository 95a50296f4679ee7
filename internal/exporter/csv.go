// Package exporter writes the pipeline's two output files and the
// distribution archive. Outputs are a full refresh: each run overwrites the
// previous files wholesale.
package exporter

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"anscli/pkg/contracts/domain"
)

// Writer exports datasets as flat CSV files.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new export writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger.With(slog.String("component", "exporter"))}
}

// WriteConsolidated writes the full-fidelity consolidated dataset.
func (w *Writer) WriteConsolidated(path string, records []domain.ConsolidatedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CNPJ,
			r.RazaoSocial,
			r.RegistroANS,
			r.Modalidade,
			r.UF,
			formatFloat(r.Valor),
		})
	}

	header := []string{"CNPJ", "RazaoSocial", "RegistroANS", "Modalidade", "UF", "Valor"}
	return w.writeCSV(path, header, rows)
}

// WriteAggregated writes the per-operator expense statistics.
func (w *Writer) WriteAggregated(path string, statistics []domain.ExpenseStat) error {
	rows := make([][]string, 0, len(statistics))
	for _, s := range statistics {
		rows = append(rows, []string{
			s.RazaoSocial,
			s.UF,
			formatFloat(s.TotalDespesas),
			formatFloat(s.MediaTrimestral),
			formatFloat(s.DesvioPadrao),
		})
	}

	header := []string{"Razao_Social", "UF", "Total_Despesas", "Media_Trimestral", "Desvio_Padrao"}
	return w.writeCSV(path, header, rows)
}

// WriteZipArchive packs srcPath into a zip at zipPath under the given
// archive member name, for distribution of the consolidated dataset.
func (w *Writer) WriteZipArchive(zipPath, srcPath, memberName string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer src.Close()

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)

	member, err := zw.Create(memberName)
	if err == nil {
		_, err = io.Copy(member, src)
	}
	if err == nil {
		err = zw.Close()
	} else {
		zw.Close()
	}

	if err != nil {
		out.Close()
		os.Remove(zipPath)
		return fmt.Errorf("failed to write archive %s: %w", zipPath, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(zipPath)
		return fmt.Errorf("failed to close %s: %w", zipPath, err)
	}

	w.logger.Info("distribution archive written",
		slog.String("path", zipPath),
		slog.String("member", memberName))

	return nil
}

// writeCSV writes a header and rows to path, creating parent directories.
// The file handle is flushed and closed on every exit path; a partially
// written file is removed so it can't be mistaken for complete output.
func (w *Writer) writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	cw := csv.NewWriter(file)

	err = cw.Write(header)
	for i := 0; err == nil && i < len(rows); i++ {
		err = cw.Write(rows[i])
	}
	if err == nil {
		cw.Flush()
		err = cw.Error()
	}

	if err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	w.logger.Info("CSV file written",
		slog.String("path", path),
		slog.Int("record_count", len(rows)))

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
