package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadWeights reads one positive integer weight per line. Blank lines are skipped.
func ReadWeights(r io.Reader) ([]int, error) {
	var weights []int

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		value, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid integer %q", line, text)
		}
		if value <= 0 {
			return nil, fmt.Errorf("line %d: weight must be positive, got %d", line, value)
		}
		weights = append(weights, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	if len(weights) == 0 {
		return nil, ErrInvalidWeights
	}
	return weights, nil
}
