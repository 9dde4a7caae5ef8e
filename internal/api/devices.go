// devices.go wraps the device-management endpoints.
package api

import (
	"context"
	"fmt"
	"time"
)

// Device describes one shutoff-device model under test.
type Device struct {
	ID           string         `json:"id"`
	DeviceModel  string         `json:"device_model"`
	DeviceName   string         `json:"device_name,omitempty"`
	Manufacturer string         `json:"manufacturer,omitempty"`
	RatedVoltage *float64       `json:"rated_voltage,omitempty"`
	RatedCurrent *float64       `json:"rated_current,omitempty"`
	RatedPower   *float64       `json:"rated_power,omitempty"`
	Specs        map[string]any `json:"specifications,omitempty"`
	Description  string         `json:"description,omitempty"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DeviceWithStats is a Device enriched with backend-computed test stats.
type DeviceWithStats struct {
	Device
	TestCount       int        `json:"test_count"`
	LastTestDate    *time.Time `json:"last_test_date,omitempty"`
	AveragePassRate float64    `json:"average_pass_rate"`
}

// DeviceInput is the payload for creating or updating a device.
type DeviceInput struct {
	DeviceModel  string         `json:"device_model,omitempty"`
	DeviceName   string         `json:"device_name,omitempty"`
	Manufacturer string         `json:"manufacturer,omitempty"`
	RatedVoltage *float64       `json:"rated_voltage,omitempty"`
	RatedCurrent *float64       `json:"rated_current,omitempty"`
	RatedPower   *float64       `json:"rated_power,omitempty"`
	Specs        map[string]any `json:"specifications,omitempty"`
	Description  string         `json:"description,omitempty"`
	IsActive     *bool          `json:"is_active,omitempty"`
}

// ListDevicesWithStats returns devices with their aggregated test stats.
func (c *Client) ListDevicesWithStats(ctx context.Context) ([]DeviceWithStats, error) {
	var devices []DeviceWithStats
	if err := c.get(ctx, "/api/v1/devices/with-stats", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// CreateDevice registers a new device model. A duplicate model comes back
// as ValidationRejected with the backend's detail message.
func (c *Client) CreateDevice(ctx context.Context, input DeviceInput) (*Device, error) {
	var device Device
	if err := c.postJSON(ctx, "/api/v1/devices", input, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// UpdateDevice modifies an existing device.
func (c *Client) UpdateDevice(ctx context.Context, id string, input DeviceInput) (*Device, error) {
	var device Device
	if err := c.putJSON(ctx, fmt.Sprintf("/api/v1/devices/%s", id), input, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	return c.delete(ctx, fmt.Sprintf("/api/v1/devices/%s", id))
}
