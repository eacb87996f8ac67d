package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a numeric string. Form clients send
// blood sugar values both ways.
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q", s)
		}
		*n = FlexNumber(f)
		return nil
	}

	return fmt.Errorf("invalid numeric value")
}

// FlexString accepts a JSON string or number and stores it as text. Ages are
// stored as text but frequently submitted as numbers.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = FlexString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}

	return fmt.Errorf("invalid string value")
}

// ReadingRequest is the mutable field set shared by create and update.
type ReadingRequest struct {
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	BloodSugar  FlexNumber `json:"bloodSugar"`
	Age         FlexString `json:"age"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Condition   string     `json:"condition"`
}

// UpdateReadingRequest carries the record id alongside the new field values.
// Fields absent from the request body stay nil and leave the stored value
// untouched.
type UpdateReadingRequest struct {
	ID          string      `json:"id"`
	Date        *string     `json:"date"`
	Time        *string     `json:"time"`
	BloodSugar  *FlexNumber `json:"bloodSugar"`
	Age         *FlexString `json:"age"`
	Type        *string     `json:"type"`
	Description *string     `json:"description"`
	Condition   *string     `json:"condition"`
}

// hasRequiredFields mirrors the original presence check: a zero blood sugar
// is treated as missing.
func (r *ReadingRequest) hasRequiredFields() bool {
	return r.Date != "" && r.Time != "" && r.BloodSugar != 0 && r.Age != ""
}
