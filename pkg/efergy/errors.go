package efergy

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the client. The api reports most failures inside
// a 200 response body, so these are matched on payload content rather than
// http status. Callers branch with errors.Is.
var (
	ErrConnect         = errors.New("error connecting to the efergy api")
	ErrInvalidAuth     = errors.New("provided api token is invalid")
	ErrInvalidPeriod   = errors.New("provided period is invalid. options are: day, week, month, year")
	ErrInvalidOffset   = errors.New("provided utc offset is invalid")
	ErrInvalidCurrency = errors.New("provided currency is invalid")
	ErrAPICallLimit    = errors.New("api key has reached calls per day allowed limit")
	ErrService         = errors.New("error communicating with sensor/hub, check connections")
)

// DataError is returned for 400 responses the api does not further classify
// and for bodies that cannot be parsed as JSON. Payload holds the raw
// response body.
type DataError struct {
	Payload []byte
}

func (e *DataError) Error() string {
	return fmt.Sprintf("unexpected data in response: %s", e.Payload)
}
