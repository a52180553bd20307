package topics

const (
	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Resultados declarados pelo feed de odds
	MarketResults = "market_results"

	// DLQs
	MarketResultsDLQ = "market_results_dlq"
)
