package domain

// AccountingRecord is one raw row from an extracted statement file, before
// enrichment. Valor keeps the source's locale formatting ("1.234,56") until
// the transformer normalizes it.
type AccountingRecord struct {
	RegistroANS string
	Conta       string
	Valor       string
	Data        string
}

// ConsolidatedRecord is an enriched, filtered accounting record projected to
// the shape persisted in consolidado_despesas.csv. Invariants after
// filtering: Valor > 0 and RazaoSocial comes from a real registry match.
type ConsolidatedRecord struct {
	CNPJ        string  `json:"cnpj" csv:"CNPJ"`
	RazaoSocial string  `json:"razao_social" csv:"RazaoSocial"`
	RegistroANS string  `json:"registro_ans" csv:"RegistroANS"`
	Modalidade  string  `json:"modalidade" csv:"Modalidade"`
	UF          string  `json:"uf" csv:"UF"`
	Valor       float64 `json:"valor" csv:"Valor"`

	// CNPJValido is carried for data-quality reporting only; it is never
	// used as a filter predicate.
	CNPJValido bool `json:"cnpj_valido" csv:"-"`
}
