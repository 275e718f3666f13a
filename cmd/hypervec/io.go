package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// openInput returns stdin for "" or "-", the named file otherwise.
func (a *app) openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(a.in), nil
	}
	return os.Open(name)
}

// decodeLines decodes a stream of JSON values, one per record, calling fn
// for each.
func decodeLines[T any](r io.Reader, fn func(line int, v T) error) error {
	dec := json.NewDecoder(r)
	for line := 1; ; line++ {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("record %d: %w", line, err)
		}
		if err := fn(line, v); err != nil {
			return fmt.Errorf("record %d: %w", line, err)
		}
	}
}

func (a *app) writeJSON(v any) error {
	return json.NewEncoder(a.out).Encode(v)
}
