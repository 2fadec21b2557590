package config

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

var _ io.WriterTo = (*Config)(nil)

func (cfg Config) WriteTo(
	w io.Writer,
) (int64, error) {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("unable to serialize: %w", err)
	}

	n, err := w.Write(b)
	return int64(n), err
}
