package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Status is the usage disposition attached to a master record.
type Status string

const (
	StatusInUse           Status = "in_use"
	StatusResellCandidate Status = "resell_candidate"
	StatusUncertain       Status = "uncertain"
)

// AllStatuses returns every valid status.
func AllStatuses() []Status {
	return []Status{StatusInUse, StatusResellCandidate, StatusUncertain}
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllStatuses() {
		if st == valid {
			return st, nil
		}
	}
	return "", eris.Errorf("invalid status %q", s)
}
