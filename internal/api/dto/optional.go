package dto

import "github.com/goccy/go-json"

// Optional records whether a field was present in a PATCH body. A present
// null leaves Value at its zero value with Set true.
type Optional[T any] struct {
	Set   bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}
