package mock

import "github.com/iguv/weekly"

var _ weekly.Converter = (*Converter)(nil)

// Converter is a mock implementation of weekly.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
