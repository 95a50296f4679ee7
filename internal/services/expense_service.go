// Package services provides the read-only data access behind the serving
// layer. It consumes the pipeline's output files as-is and never mutates
// them.
package services

import (
	"context"
	"encoding/csv"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"anscli/internal/config"
	"anscli/pkg/contracts/domain"
)

// ExpenseService reads the aggregated expense dataset. A missing dataset
// means the pipeline has not run yet; the service substitutes a clearly
// marked placeholder instead of failing.
type ExpenseService struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewExpenseService creates an expense service over the configured outputs.
func NewExpenseService(cfg *config.Config, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "expense_service")),
	}
}

// PageMeta describes one page of a listed dataset.
type PageMeta struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	PagesTotal  int  `json:"pages_total"`
	Placeholder bool `json:"placeholder,omitempty"`
}

// OperatorPage is one page of aggregated operator expenses.
type OperatorPage struct {
	Data []domain.ExpenseStat `json:"data"`
	Meta PageMeta             `json:"meta"`
}

// UFTotal is the total expense for one region, used by the stats endpoint.
type UFTotal struct {
	UF    string  `json:"uf"`
	Total float64 `json:"total"`
}

// Statistics is the dashboard summary of the aggregated dataset.
type Statistics struct {
	TotalGeral     float64   `json:"total_geral"`
	DistribuicaoUF []UFTotal `json:"distribuicao_uf"`
	Placeholder    bool      `json:"placeholder,omitempty"`
}

// List returns one page of operators, optionally filtered by a
// case-insensitive substring match on RazaoSocial.
func (s *ExpenseService) List(ctx context.Context, page, limit int, search string) (*OperatorPage, error) {
	rows, placeholder, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := rows[:0:0]
		for _, row := range rows {
			if strings.Contains(strings.ToLower(row.RazaoSocial), needle) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	total := len(rows)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pagesTotal := total / limit
	if total%limit > 0 {
		pagesTotal++
	}

	return &OperatorPage{
		Data: rows[start:end],
		Meta: PageMeta{
			Total:       total,
			Page:        page,
			Limit:       limit,
			PagesTotal:  pagesTotal,
			Placeholder: placeholder,
		},
	}, nil
}

// Stats returns the grand total and the per-UF distribution, largest first.
func (s *ExpenseService) Stats(ctx context.Context) (*Statistics, error) {
	rows, placeholder, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	byUF := make(map[string]float64)
	var order []string
	var total float64
	for _, row := range rows {
		if _, seen := byUF[row.UF]; !seen {
			order = append(order, row.UF)
		}
		byUF[row.UF] += row.TotalDespesas
		total += row.TotalDespesas
	}

	distribution := make([]UFTotal, 0, len(order))
	for _, uf := range order {
		distribution = append(distribution, UFTotal{UF: uf, Total: byUF[uf]})
	}
	sort.SliceStable(distribution, func(i, j int) bool {
		return distribution[i].Total > distribution[j].Total
	})

	return &Statistics{
		TotalGeral:     total,
		DistribuicaoUF: distribution,
		Placeholder:    placeholder,
	}, nil
}

// load reads the aggregated CSV. A missing file yields the placeholder
// dataset with placeholder=true; a present but unreadable file is an error.
func (s *ExpenseService) load(ctx context.Context) (rows []domain.ExpenseStat, placeholder bool, err error) {
	path := s.cfg.AggregatedCSVPath()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "aggregated dataset missing, serving placeholder",
				slog.String("path", path))
			return placeholderRows(), true, nil
		}
		return nil, false, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, false, err
	}
	if len(records) < 2 {
		return nil, false, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.TrimSpace(h)] = i
	}

	rows = make([]domain.ExpenseStat, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, domain.ExpenseStat{
			RazaoSocial:     cell(record, col, "Razao_Social"),
			UF:              cell(record, col, "UF"),
			TotalDespesas:   numericCell(record, col, "Total_Despesas"),
			MediaTrimestral: numericCell(record, col, "Media_Trimestral"),
			DesvioPadrao:    numericCell(record, col, "Desvio_Padrao"),
		})
	}

	return rows, false, nil
}

func cell(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// numericCell parses a float cell, replacing anything the transport format
// cannot represent (NaN, infinities, garbage) with 0.
func numericCell(record []string, col map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(cell(record, col, name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// placeholderRows is the mock dataset served before the first pipeline run.
func placeholderRows() []domain.ExpenseStat {
	return []domain.ExpenseStat{
		{RazaoSocial: "OPERADORA EXEMPLO A (PLACEHOLDER)", UF: "SP", TotalDespesas: 900000, MediaTrimestral: 300000},
		{RazaoSocial: "OPERADORA EXEMPLO B (PLACEHOLDER)", UF: "RJ", TotalDespesas: 500000, MediaTrimestral: 250000},
	}
}
