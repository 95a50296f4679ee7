package domain

// Operator represents one row of the CADOP active-operator registry.
// The registry is loaded once per pipeline run and treated as read-only.
type Operator struct {
	RegistroANS string `json:"registro_ans" csv:"RegistroANS"`
	CNPJ        string `json:"cnpj" csv:"CNPJ"`
	RazaoSocial string `json:"razao_social" csv:"RazaoSocial"`
	UF          string `json:"uf" csv:"UF"`
	Modalidade  string `json:"modalidade" csv:"Modalidade"`
}

// OperatorLookup maps a trimmed RegistroANS to its registry entry.
// Duplicate ids are last-write-wins; an empty id is never a key.
type OperatorLookup map[string]Operator
