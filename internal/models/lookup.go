package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Subject is a worker that can be clocked.
type Subject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Activity is a service code from the activity table.
type Activity struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Order is a production order.
type Order struct {
	ID         string `json:"id"`
	Reference  string `json:"reference"`
	Quantities string `json:"quantities"`
	Client     string `json:"client"`
	Item       string `json:"item"`
}

// DirectServiceItem describes the order of a direct service.
const DirectServiceItem = "SERVICIO DIRECTO"

// DirectOrder is the order booked for activities that need no production order.
func DirectOrder(id string) Order {
	return Order{
		ID:         id,
		Reference:  NotAvailable,
		Quantities: NotAvailable,
		Client:     NotAvailable,
		Item:       DirectServiceItem,
	}
}

// LookupCache is a disposable local mirror of the remote lookup tables.
type LookupCache struct {
	Subjects      []Subject  `json:"subjects"`
	Activities    []Activity `json:"activities"`
	Orders        []Order    `json:"orders"`
	LastRefreshed time.Time  `json:"last_refreshed"`
}

func (c LookupCache) FindSubject(code string) (Subject, bool) {
	for _, s := range c.Subjects {
		if SameCode(s.Code, code) {
			return s, true
		}
	}
	return Subject{}, false
}

func (c LookupCache) FindActivity(code string) (Activity, bool) {
	for _, a := range c.Activities {
		if SameCode(a.Code, code) {
			return a, true
		}
	}
	return Activity{}, false
}

func (c LookupCache) FindOrder(id string) (Order, bool) {
	for _, o := range c.Orders {
		if SameCode(o.ID, id) {
			return o, true
		}
	}
	return Order{}, false
}

// Empty reports whether the cache has never been filled.
func (c LookupCache) Empty() bool {
	return len(c.Subjects) == 0 && len(c.Activities) == 0 && len(c.Orders) == 0
}

// ErrInvalidCode is returned for scans that cannot be a barcode.
var ErrInvalidCode = errors.New("invalid barcode")

// MinCodeLength is the shortest accepted barcode.
const MinCodeLength = 3

// NormalizeCode trims a scanned code. Spreadsheet exports of numeric ids
// sometimes carry a trailing ".0", which is dropped.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	return strings.TrimSuffix(code, ".0")
}

// SameCode compares two codes after normalization, ignoring case.
func SameCode(a, b string) bool {
	return strings.EqualFold(NormalizeCode(a), NormalizeCode(b))
}

// ScanRequest is the three codes collected by one scan flow.
type ScanRequest struct {
	SubjectCode  string `json:"subject"`
	ActivityCode string `json:"activity"`
	OrderCode    string `json:"order"`
	// Direct marks an activity booked without a production order.
	Direct bool `json:"direct,omitempty"`
}

// Validate normalizes every code. All codes must be present and the
// subject badge must be at least MinCodeLength long.
func (r ScanRequest) Validate() (ScanRequest, error) {
	out := ScanRequest{
		SubjectCode:  NormalizeCode(r.SubjectCode),
		ActivityCode: NormalizeCode(r.ActivityCode),
		OrderCode:    NormalizeCode(r.OrderCode),
		Direct:       r.Direct,
	}
	if err := ValidateCode(out.SubjectCode); err != nil {
		return ScanRequest{}, fmt.Errorf("subject: %w", err)
	}
	if out.ActivityCode == "" {
		return ScanRequest{}, fmt.Errorf("activity: %w", ErrInvalidCode)
	}
	if out.OrderCode == "" {
		return ScanRequest{}, fmt.Errorf("order: %w", ErrInvalidCode)
	}
	return out, nil
}

// ValidateCode checks a badge or order barcode.
func ValidateCode(code string) error {
	if len(NormalizeCode(code)) < MinCodeLength {
		return ErrInvalidCode
	}
	return nil
}
