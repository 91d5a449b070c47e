package countervalue

import "fmt"

// HTTPError is a fetch failure that carries an HTTP status code. Only
// these failures count toward a pair's failure streak; status-less
// transport errors are retried unconditionally on the next pass.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("countervalues API returned HTTP %d for %s", e.Status, e.URL)
}
