package discovery

import "fmt"

// InvalidInputError is returned when the company identifier is empty or unusable.
type InvalidInputError struct {
	Input   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid input: %s", e.Message)
	}
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Message)
}
