package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDevice is returned when a command needs a device id and none is known
var ErrNoDevice = errors.New("no device id: run 'signmaze identify' first or pass --device-id")

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	DeviceID   string
	DeviceFile string
	Output     string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("SIGNMAZE_SERVER", "http://localhost:3000"),
		DeviceID:   os.Getenv("SIGNMAZE_DEVICE_ID"),
		DeviceFile: getEnvOrDefault("SIGNMAZE_DEVICE_FILE", defaultDeviceFile()),
		Output:     "text",
	}
}

// LoadDeviceID loads the device id from file if not already set
func (c *Config) LoadDeviceID() error {
	if c.DeviceID != "" {
		return nil
	}

	data, err := os.ReadFile(c.DeviceFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not identified yet
		}
		return err
	}

	c.DeviceID = strings.TrimSpace(string(data))
	return nil
}

// SaveDeviceID saves the device id to the device file
func (c *Config) SaveDeviceID(id string) error {
	c.DeviceID = id

	dir := filepath.Dir(c.DeviceFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	return os.WriteFile(c.DeviceFile, []byte(id), 0o600)
}

// RequireDeviceID returns the known device id or ErrNoDevice
func (c *Config) RequireDeviceID() (string, error) {
	if c.DeviceID == "" {
		return "", ErrNoDevice
	}
	return c.DeviceID, nil
}

func defaultDeviceFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signmaze/device"
	}
	return filepath.Join(home, ".signmaze", "device")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
