package efergy

// Period selects the aggregation window for energy, cost and history calls.
// The api treats a month as 28 days since months vary in length.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const DefaultPeriod = PeriodMonth

// ReadingType selects which endpoint and response field the generic Reading
// call targets.
type ReadingType string

const (
	// ReadingInstant is the current power draw in watts.
	ReadingInstant ReadingType = "instant_readings"
	// ReadingEnergy is the kWh used during a period.
	ReadingEnergy ReadingType = "energy"
	// ReadingCost is the cost of energy used during a period.
	ReadingCost ReadingType = "cost"
	// ReadingBudget is the status of the configured monthly budget.
	ReadingBudget ReadingType = "budget"
	// ReadingCurrentValues is the latest value of every sensor on the account.
	ReadingCurrentValues ReadingType = "current_values"
)

// DataType selects the unit of timeseries responses.
type DataType string

const (
	DataTypeKWH  DataType = "kwh"
	DataTypeCost DataType = "cost"
)

const DefaultDataType = DataTypeKWH

// AggFuncSum is the only aggregation function the api documents.
const AggFuncSum = "sum"

// Info holds account metadata populated as a side effect of Status.
type Info struct {
	HID      string
	MAC      string
	Status   string
	Type     string
	Version  string
	Currency string
}

// Sensor is one entry of the current values summary. Data carries a single
// timestamped point keyed by epoch milliseconds.
type Sensor struct {
	CID   string           `json:"cid"`
	SID   string           `json:"sid"`
	Data  []map[string]any `json:"data"`
	Units string           `json:"units"`
	Age   int              `json:"age"`
}

// Value returns the sole data value of the first reported point, or nil if
// the sensor reported nothing.
func (s Sensor) Value() any {
	if len(s.Data) == 0 {
		return nil
	}
	for _, v := range s.Data[0] {
		return v
	}
	return nil
}
