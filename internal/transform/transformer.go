// Package transform parses extracted statement files, normalizes their
// values, enriches each record against the operator registry and applies the
// business-rule filters that shape the consolidated dataset.
package transform

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "anscli/internal/errors"
	"anscli/internal/tabular"
	"anscli/internal/validation"
	"anscli/pkg/contracts/domain"
)

// Source column names after header normalization. Statement files name their
// columns consistently (unlike the registry), so these are exact matches.
const (
	colRegistro = "REG_ANS"
	colConta    = "CD_CONTA_CONTABIL"
	colValor    = "VL_SALDO_FINAL"
	colData     = "DATA"
)

// Sentinel values used only at the serialization boundary for records whose
// registry join missed. They never flow through business logic: the join
// returns (Operator, ok) and filtering acts on ok.
const (
	UnknownCNPJ       = "00000000000000"
	UnknownRazao      = "DESCONHECIDO"
	UnknownUF         = "ND"
	UnknownModalidade = "ND"
)

// Transformer turns raw statement files into consolidated records.
type Transformer struct {
	registry domain.OperatorLookup
	logger   *slog.Logger
}

// New creates a transformer joining against the given registry lookup. The
// lookup may be empty, in which case every record degrades to a join miss.
func New(registry domain.OperatorLookup, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		registry: registry,
		logger:   logger.With(slog.String("component", "transform")),
	}
}

// TransformFile parses one extracted statement file and returns its
// consolidated records. A file without a value column is not financial data
// and yields an empty result with no error. Unrecoverable parse failures
// return an error the caller logs and skips.
func (t *Transformer) TransformFile(ctx context.Context, path string) ([]domain.ConsolidatedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open statement file", err).
			WithContext("path", path)
	}
	defer f.Close()

	table, err := tabular.Read(f)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse statement file", err).
			WithContext("path", path)
	}

	valorIdx, ok := table.Index(colValor)
	if !ok {
		t.logger.Info("file has no value column, skipping",
			slog.String("path", path),
			slog.Any("headers", table.Headers))
		return nil, nil
	}
	registroIdx, _ := table.Index(colRegistro)
	contaIdx, _ := table.Index(colConta)
	dataIdx, _ := table.Index(colData)

	records := make([]domain.ConsolidatedRecord, 0, len(table.Rows))
	var joinMisses, nonPositive int

	for _, row := range table.Rows {
		raw := domain.AccountingRecord{
			RegistroANS: tabular.Field(row, registroIdx),
			Conta:       tabular.Field(row, contaIdx),
			Valor:       tabular.Field(row, valorIdx),
			Data:        tabular.Field(row, dataIdx),
		}

		operator, found := t.registry[raw.RegistroANS]
		if !found {
			// Unmatched records are excluded from the deliverable,
			// not merely flagged.
			joinMisses++
			continue
		}

		valor := ParseValor(raw.Valor)
		if valor <= 0 {
			// Zero and reversal entries are out of the expense analysis.
			nonPositive++
			continue
		}

		records = append(records, domain.ConsolidatedRecord{
			CNPJ:        operator.CNPJ,
			RazaoSocial: operator.RazaoSocial,
			RegistroANS: operator.RegistroANS,
			Modalidade:  operator.Modalidade,
			UF:          operator.UF,
			Valor:       valor,
			CNPJValido:  validation.ValidCNPJ(operator.CNPJ),
		})
	}

	t.logger.InfoContext(ctx, "statement file transformed",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("kept", len(records)),
		slog.Int("join_misses", joinMisses),
		slog.Int("non_positive", nonPositive))

	return records, nil
}

// TransformAll runs TransformFile over every extracted file and concatenates
// the results. Per-file failures are logged and skipped; they never abort
// the remaining files.
func (t *Transformer) TransformAll(ctx context.Context, paths []string) []domain.ConsolidatedRecord {
	var all []domain.ConsolidatedRecord
	for _, path := range paths {
		records, err := t.TransformFile(ctx, path)
		if err != nil {
			t.logger.Warn("skipping statement file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		all = append(all, records...)
	}
	return all
}

// ParseValor normalizes a Brazilian-formatted monetary string ("1.234,56")
// to a float64. The source uses '.' as thousands separator and ',' as
// decimal separator. Unparseable values become 0 rather than failing the
// row; they contribute nothing and are filtered out downstream.
func ParseValor(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
