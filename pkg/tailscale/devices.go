package tailscale

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Devices returns all devices in the tailnet, keyed by device ID.
func (c *Client) Devices(ctx context.Context) (map[string]Device, error) {
	var result struct {
		Devices []Device `json:"devices"`
	}
	uri := fmt.Sprintf("tailnet/%s/devices?fields=all", url.PathEscape(c.tailnet))
	if err := c.get(ctx, uri, &result); err != nil {
		return nil, err
	}

	devices := make(map[string]Device, len(result.Devices))
	for _, device := range result.Devices {
		devices[device.ID] = device
	}
	return devices, nil
}

// Device returns a single device by ID.
func (c *Client) Device(ctx context.Context, deviceID string) (*Device, error) {
	var device Device
	uri := fmt.Sprintf("device/%s?fields=all", url.PathEscape(deviceID))
	if err := c.get(ctx, uri, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// DeleteDevice removes a device from the tailnet.
func (c *Client) DeleteDevice(ctx context.Context, deviceID string) error {
	_, err := c.request(ctx, http.MethodDelete, "device/"+url.PathEscape(deviceID), nil)
	return err
}

// AuthorizeDevice marks a device as authorized, for tailnets where device
// authorization is required.
func (c *Client) AuthorizeDevice(ctx context.Context, deviceID string) error {
	body := map[string]bool{"authorized": true}
	return c.post(ctx, fmt.Sprintf("device/%s/authorized", url.PathEscape(deviceID)), body, nil)
}

// SetDeviceTags replaces the tags of a device.
func (c *Client) SetDeviceTags(ctx context.Context, deviceID string, tags []string) error {
	body := map[string][]string{"tags": tags}
	return c.post(ctx, fmt.Sprintf("device/%s/tags", url.PathEscape(deviceID)), body, nil)
}
