package session

import (
	"os"

	"github.com/google/uuid"
)

// Device implements ports.Session with a device ID taken from the
// environment, mirroring how the platform namespaces accounts. The engine
// only uses the ID to label state; there are no credentials to validate.
type Device struct {
	id string
}

// NewDevice builds a session with an explicit ID, falling back to the
// DEVICE_ID env var (populated from .env by config.Load) and finally to a
// fresh UUID.
func NewDevice(id string) *Device {
	if id == "" {
		id = os.Getenv("DEVICE_ID")
	}
	if id == "" {
		id = uuid.New().String()
	}
	return &Device{id: id}
}

// AccountID returns the device/account identifier.
func (d *Device) AccountID() string { return d.id }
