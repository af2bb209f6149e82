// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidReport is returned when a reply is not a weather report.
var ErrInvalidReport = errors.New("invalid weather report")

// Report is the structured answer expected from the model.
type Report struct {
	City        string  `json:"city" yaml:"city"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// String renders the report as "Москва: +5°C".
func (r Report) String() string {
	t := strconv.FormatFloat(r.Temperature, 'f', -1, 64)
	if r.Temperature > 0 {
		t = "+" + t
	}
	return fmt.Sprintf("%s: %s°C", r.City, t)
}

// Parse decodes a model reply. When the raw text is not valid JSON, code
// fences are stripped and decoding is retried.
func Parse(text string) (Report, error) {
	r, err := decode(strings.TrimSpace(text))
	if err == nil {
		return r, nil
	}

	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	r, err2 := decode(strings.TrimSpace(clean))
	if err2 != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidReport, err2)
	}
	return r, nil
}

func decode(s string) (Report, error) {
	var r Report
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Report{}, err
	}
	if strings.TrimSpace(r.City) == "" {
		return Report{}, errors.New("missing city")
	}
	return r, nil
}
