package model

import (
	"regexp"
	"sort"
)

// Dialect is the command/behavior profile for one platform family. The
// prompt pattern anchors the read-until loop; everything else is the
// handful of commands that differ between vendors.
type Dialect struct {
	Name string
	// ShowConfig dumps the full running configuration.
	ShowConfig string
	// DisablePaging turns off terminal pagination so the dump is not
	// interleaved with --More-- prompts. Empty means not needed.
	DisablePaging string
	// ElevateCommand enters privileged mode. Empty means the platform has
	// no elevation step.
	ElevateCommand string
	// PasswordPrompt matches the elevation password prompt.
	PasswordPrompt *regexp.Regexp
	// Prompt matches the interactive prompt at the end of output.
	Prompt *regexp.Regexp
}

var dialects = map[string]*Dialect{
	"cisco_ios": {
		Name:           "cisco_ios",
		ShowConfig:     "show running-config",
		DisablePaging:  "terminal length 0",
		ElevateCommand: "enable",
		PasswordPrompt: regexp.MustCompile(`(?i)password[: ]*$`),
		Prompt:         regexp.MustCompile(`[\w.()/:-]+[#>] ?$`),
	},
	"cisco_nxos": {
		Name:           "cisco_nxos",
		ShowConfig:     "show running-config",
		DisablePaging:  "terminal length 0",
		PasswordPrompt: regexp.MustCompile(`(?i)password[: ]*$`),
		Prompt:         regexp.MustCompile(`[\w.()/:-]+[#>] ?$`),
	},
	"arista_eos": {
		Name:           "arista_eos",
		ShowConfig:     "show running-config",
		DisablePaging:  "terminal length 0",
		ElevateCommand: "enable",
		PasswordPrompt: regexp.MustCompile(`(?i)password[: ]*$`),
		Prompt:         regexp.MustCompile(`[\w.()/:-]+[#>] ?$`),
	},
	"juniper_junos": {
		Name:          "juniper_junos",
		ShowConfig:    "show configuration | display set",
		DisablePaging: "set cli screen-length 0",
		Prompt:        regexp.MustCompile(`[\w.@-]+[%>#] ?$`),
	},
	"linux": {
		Name:       "linux",
		ShowConfig: "cat /etc/network/interfaces",
		Prompt:     regexp.MustCompile(`[$#] ?$`),
	},
}

// DialectByName resolves a device_type tag to its dialect.
func DialectByName(name string) (*Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// DialectNames lists the known device_type tags, for error messages.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
