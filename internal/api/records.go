// records.go wraps the test-record endpoints.
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// TestRecord mirrors one shutoff-device test result row.
// The authoritative shape is backend-owned; the client only displays it.
type TestRecord struct {
	ID           string     `json:"id"`
	FileName     string     `json:"file_name"`
	TestDate     time.Time  `json:"test_date"`
	Voltage      *float64   `json:"voltage,omitempty"`
	Current      *float64   `json:"current,omitempty"`
	Resistance   *float64   `json:"resistance,omitempty"`
	Power        *float64   `json:"power,omitempty"`
	DeviceModel  string     `json:"device_model,omitempty"`
	BatchNumber  string     `json:"batch_number,omitempty"`
	Operator     string     `json:"operator,omitempty"`
	Status       string     `json:"status"`
	TestDuration *int       `json:"test_duration,omitempty"`
	SampleCount  *int       `json:"sample_count,omitempty"`
	PassRate     *float64   `json:"pass_rate,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// RecordFilter narrows a record listing. Zero values are omitted.
type RecordFilter struct {
	DeviceModel string
	BatchNumber string
	Operator    string
	Status      string
	StartDate   string // ISO date
	EndDate     string // ISO date
	Skip        int
	Limit       int
}

// query encodes the filter as URL parameters.
func (f RecordFilter) query() url.Values {
	q := url.Values{}
	if f.DeviceModel != "" {
		q.Set("device_model", f.DeviceModel)
	}
	if f.BatchNumber != "" {
		q.Set("batch_number", f.BatchNumber)
	}
	if f.Operator != "" {
		q.Set("operator", f.Operator)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ListRecords returns test records matching the filter.
func (c *Client) ListRecords(ctx context.Context, filter RecordFilter) ([]TestRecord, error) {
	var records []TestRecord
	if err := c.get(ctx, "/api/v1/records", filter.query(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRecord removes a test record. Callers invalidate the record-list
// cache key afterwards so the next read re-fetches.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/api/v1/records/%s", id))
}
