package wast

import (
	"fmt"
	"os"

	"github.com/wippyai/wast/script"
)

// Parse parses WAST source text into its directive list.
func Parse(source string) (*script.Root, error) {
	return script.Parse(source)
}

// ParseFile reads and parses one script file.
func ParseFile(path string) (*script.Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return script.Parse(string(data))
}
