package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Device is one inventory entry: how to reach and authenticate to a
// single network device.
type Device struct {
	Name       string `json:"name" yaml:"name" toml:"name" hcl:"name"`
	Host       string `json:"host" yaml:"host" toml:"host" hcl:"host"`
	Username   string `json:"username" yaml:"username" toml:"username" hcl:"username"`
	Password   string `json:"password" yaml:"password" toml:"password" hcl:"password"`
	DeviceType string `json:"device_type" yaml:"device_type" toml:"device_type" hcl:"device_type"`
	// Secret is the privilege-elevation credential, if the platform needs one.
	Secret string `json:"secret" yaml:"secret" toml:"secret" hcl:"secret"`
	Port   int    `json:"port" yaml:"port" toml:"port" hcl:"port"`
	// ConfigFile, when set, switches retrieval from the dialect's dump
	// command to an SFTP fetch of this path.
	ConfigFile string `json:"config_file" yaml:"config_file" toml:"config_file" hcl:"config_file"`
}

const DefaultSSHPort = 22

func (d *Device) Validate() []error {
	errs := []error{}
	if d.Name == "" {
		errs = append(errs, errors.New("name required"))
	}
	if d.Host == "" {
		errs = append(errs, errors.New("host required"))
	}
	if d.Username == "" {
		errs = append(errs, errors.New("username required"))
	}
	if d.Password == "" {
		errs = append(errs, errors.New("password required"))
	}
	if d.DeviceType == "" {
		errs = append(errs, errors.New("device_type required"))
	} else if _, ok := DialectByName(d.DeviceType); !ok {
		errs = append(errs, fmt.Errorf("unrecognized device_type %v, known types: %v",
			d.DeviceType, strings.Join(DialectNames(), ", ")))
	}
	if d.Port < 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %v", d.Port))
	}
	return errs
}

// ConnParams is the narrow parameter set handed to the connection client.
// It deliberately excludes inventory-only fields such as the display name;
// building it is the one place inventory records meet the session API.
type ConnParams struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Secret         string
	Dialect        *Dialect
	ConfigFile     string
	TranscriptPath string
	Timeout        time.Duration
}

// ConnParamsForDevice maps an inventory record to connection parameters.
// transcriptPath may be empty, which disables session transcript capture.
func ConnParamsForDevice(d *Device, transcriptPath string, timeout time.Duration) (*ConnParams, error) {
	dialect, ok := DialectByName(d.DeviceType)
	if !ok {
		return nil, fmt.Errorf("unrecognized device_type: %v", d.DeviceType)
	}
	port := d.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return &ConnParams{
		Host:           d.Host,
		Port:           port,
		Username:       d.Username,
		Password:       d.Password,
		Secret:         d.Secret,
		Dialect:        dialect,
		ConfigFile:     d.ConfigFile,
		TranscriptPath: transcriptPath,
		Timeout:        timeout,
	}, nil
}

func (p *ConnParams) Addr() string {
	return fmt.Sprintf("%v:%v", p.Host, p.Port)
}
