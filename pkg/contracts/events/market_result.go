package events

// Resultado declarado pelo feed para um par mercado+seleção.
// O settlement-worker converte o resultado em um outcome por aposta:
// yes/back seguem o resultado, no/lay recebem o inverso.
type MarketResult struct {
	MarketID  string `json:"market_id"`
	Selection string `json:"selection"`
	Result    string `json:"result"` // "yes" | "no"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
