package strategy

import "time"

type State uint8

const (
	Pending State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Metrics is one row of a scenario metrics file as produced by the Athena
// export. Column names follow the export schema, not Go conventions.
type Metrics struct {
	TraderID            string  `csv:"traderid" json:"traderid"`
	SortinoRatio        float64 `csv:"sortino_ratio" json:"sortino_ratio"`
	RecoveryFactor      float64 `csv:"recovery_factor" json:"recovery_factor"`
	ProfitFactor        float64 `csv:"profit_factor" json:"profit_factor"`
	MaxDrawdown         float64 `csv:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownDuration float64 `csv:"max_drawdown_duration" json:"max_drawdown_duration"`
	TradeCount          float64 `csv:"tradecount" json:"tradecount"`
	TotalProfit         float64 `csv:"totalprofit" json:"totalprofit"`
	CompositeScore      float64 `csv:"CompositeScore" json:"composite_score"`
}

// Run records one invocation of the analysis pipeline for a symbol.
type Run struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Symbol         string    `json:"symbol" db:"symbol"`
	State          State     `json:"state" db:"state"`
	Scenarios      int       `json:"scenarios" db:"scenarios"`
	StrategiesIn   int       `json:"strategies_in" db:"strategies_in"`
	StrategiesKept int       `json:"strategies_kept" db:"strategies_kept"`
	Error          string    `json:"error,omitempty" db:"error"`
	StartTime      time.Time `json:"start_time" db:"start_time"`
	FinishTime     time.Time `json:"finish_time" db:"finish_time"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type RunPage struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
	Total  uint64 `json:"total"`
	Runs   []Run  `json:"runs"`
}
