package orders

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) IsBuy() bool { return s == Buy }

type Type string

const (
	Market Type = "MARKET"
	Limit  Type = "LIMIT"
	Stop   Type = "STOP"
)

type Status string

const (
	Pending   Status = "PENDING"
	Filled    Status = "FILLED"
	Cancelled Status = "CANCELLED"
	Rejected  Status = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// Ticket is a fully-specified trade request. Optional fields are pointers so
// that "unset" is distinguishable from a zero value; the desk never defaults
// them implicitly.
type Ticket struct {
	Symbol      string
	Type        Type
	Side        Side
	Volume      float64 // lots
	Price       *float64
	StopLoss    *float64
	TakeProfit  *float64
	RiskPercent *float64
	Comment     string
}

// Order is a submitted ticket with identity and lifecycle state.
type Order struct {
	ID          string
	Symbol      string
	Type        Type
	Side        Side
	Volume      float64
	Price       *float64
	StopLoss    *float64
	TakeProfit  *float64
	RiskPercent *float64
	Comment     string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update carries the amendable fields of a pending order.
type Update struct {
	Price      *float64
	StopLoss   *float64
	TakeProfit *float64
	Volume     *float64
}
