package domain

// ExpenseStat is the aggregated statistic for one (RazaoSocial, UF) group as
// persisted in despesas_agregadas.csv. DesvioPadrao is the sample standard
// deviation, defined as 0 for single-member groups.
type ExpenseStat struct {
	RazaoSocial     string  `json:"Razao_Social" csv:"Razao_Social"`
	UF              string  `json:"UF" csv:"UF"`
	TotalDespesas   float64 `json:"Total_Despesas" csv:"Total_Despesas"`
	MediaTrimestral float64 `json:"Media_Trimestral" csv:"Media_Trimestral"`
	DesvioPadrao    float64 `json:"Desvio_Padrao" csv:"Desvio_Padrao"`
}
