// Package registry downloads the CADOP active-operator registry and exposes
// it as a read-only lookup keyed by RegistroANS.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "anscli/internal/errors"
	"anscli/internal/scraper"
	"anscli/internal/tabular"
	"anscli/pkg/contracts/domain"
)

// ErrNoRegistryFound indicates no registry file link was discovered. This is
// recoverable: the pipeline continues with an empty lookup and every record
// degrades to a join miss.
var ErrNoRegistryFound = errors.New("no registry file found")

// Header alias candidates for the logical registry columns, tried in order.
// The source renames columns between publications; substring matching against
// the uppercased headers absorbs the drift.
var (
	registroAliases   = []string{"REGISTRO"}
	cnpjAliases       = []string{"CNPJ"}
	razaoAliases      = []string{"RAZAO"}
	ufAliases         = []string{"UF"}
	modalidadeAliases = []string{"MODALIDADE"}
)

// Loader locates, downloads and indexes the operator registry.
type Loader struct {
	client *scraper.Client
	dirURL string
	logger *slog.Logger
}

// NewLoader creates a registry loader reading from the given directory URL.
func NewLoader(client *scraper.Client, dirURL string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: client,
		dirURL: dirURL,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Load discovers the registry CSV, downloads it and builds the lookup map.
// Duplicate registration ids are last-write-wins; rows with an empty id are
// skipped. Returns ErrNoRegistryFound when no candidate link exists.
func (l *Loader) Load(ctx context.Context) (domain.OperatorLookup, error) {
	link, err := l.selectLink(ctx)
	if err != nil {
		return nil, err
	}

	l.logger.Info("downloading operator registry", slog.String("url", link))

	resp, err := l.client.Download(ctx, link)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to download registry file", err).
			WithContext("url", link)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("registry download returned status %d", resp.StatusCode), nil).
			WithContext("url", link)
	}

	table, err := tabular.Read(resp.Body)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse registry file", err).
			WithContext("url", link)
	}

	return l.buildLookup(table)
}

// selectLink picks the registry file among the discovered CSV links: prefer
// the first whose URL carries a "relatorio" or "cadop" marker, fall back to
// the first link of any name.
func (l *Loader) selectLink(ctx context.Context) (string, error) {
	links := l.client.Discover(ctx, l.dirURL, ".csv")
	if len(links) == 0 {
		return "", ErrNoRegistryFound
	}

	for _, link := range links {
		lower := strings.ToLower(link)
		if strings.Contains(lower, "relatorio") || strings.Contains(lower, "cadop") {
			return link, nil
		}
	}
	return links[0], nil
}

func (l *Loader) buildLookup(table *tabular.Table) (domain.OperatorLookup, error) {
	registroIdx, ok := table.Resolve(registroAliases...)
	if !ok {
		return nil, apperrors.NewParsingError("registry has no registration id column", nil).
			WithContext("headers", table.Headers)
	}
	cnpjIdx, ok := table.Resolve(cnpjAliases...)
	if !ok {
		return nil, apperrors.NewParsingError("registry has no CNPJ column", nil).
			WithContext("headers", table.Headers)
	}
	razaoIdx, ok := table.Resolve(razaoAliases...)
	if !ok {
		return nil, apperrors.NewParsingError("registry has no legal name column", nil).
			WithContext("headers", table.Headers)
	}
	ufIdx, ok := table.Resolve(ufAliases...)
	if !ok {
		return nil, apperrors.NewParsingError("registry has no UF column", nil).
			WithContext("headers", table.Headers)
	}
	// Modalidade is informational; older publications omit it.
	modalidadeIdx, _ := table.Resolve(modalidadeAliases...)

	lookup := make(domain.OperatorLookup, len(table.Rows))
	for _, row := range table.Rows {
		registro := tabular.Field(row, registroIdx)
		if registro == "" {
			continue
		}
		lookup[registro] = domain.Operator{
			RegistroANS: registro,
			CNPJ:        tabular.Field(row, cnpjIdx),
			RazaoSocial: tabular.Field(row, razaoIdx),
			UF:          tabular.Field(row, ufIdx),
			Modalidade:  tabular.Field(row, modalidadeIdx),
		}
	}

	l.logger.Info("operator registry loaded",
		slog.Int("operators", len(lookup)),
		slog.Int("rows", len(table.Rows)))

	return lookup, nil
}
