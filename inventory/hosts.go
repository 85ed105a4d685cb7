package inventory

import (
	"fmt"
	"os"
	"strings"
)

// LoadHosts reads a host list for the reachability prober. Files with a
// known inventory extension are parsed as inventory documents and yield
// each record's host; records missing a host are skipped and reported so
// the caller can warn. Anything else is treated as a newline-separated
// host list, with blank lines and #-comments ignored.
func LoadHosts(path string) (hosts []string, skipped int, err error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %v", ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("unable to read host file %v: %w", path, err)
	}
	if format, ferr := formatForPath(path); ferr == nil {
		doc := new(document)
		if err := unmarshal(bytes, format, doc); err != nil {
			return nil, 0, &ParseError{Path: path, Err: err}
		}
		for _, device := range doc.Devices {
			if device == nil || device.Host == "" {
				skipped++
				continue
			}
			hosts = append(hosts, device.Host)
		}
		return hosts, skipped, nil
	}
	for _, line := range strings.Split(string(bytes), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	return hosts, 0, nil
}
