package platform

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Family is the closed set of OS families this installer can provision.
type Family string

const (
	FamilyDebian Family = "debian"
	FamilyRHEL   Family = "rhel"
)

// Info describes the detected operating system. Detected once at startup,
// read-only afterwards; it drives the package-list branch.
type Info struct {
	Family  Family
	ID      string // os-release ID, e.g. "ubuntu"
	Version string // os-release VERSION_ID, e.g. "24.04"
}

// osReleasePath is a variable so tests can point it at a fixture.
var osReleasePath = "/etc/os-release"

// Detect reads /etc/os-release and resolves the OS family.
func Detect() (*Info, error) {
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", osReleasePath, err)
	}
	return parseOSRelease(string(data))
}

func parseOSRelease(data string) (*Info, error) {
	fields := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}

	info := &Info{
		ID:      fields["ID"],
		Version: fields["VERSION_ID"],
	}

	family, err := resolveFamily(fields["ID"], fields["ID_LIKE"])
	if err != nil {
		return nil, err
	}
	info.Family = family

	return info, nil
}

// resolveFamily maps os-release ID/ID_LIKE values onto the closed Family set.
// Anything outside the set is an unsupported host and fails fast.
func resolveFamily(id, idLike string) (Family, error) {
	ids := append([]string{id}, strings.Fields(idLike)...)
	for _, v := range ids {
		switch strings.ToLower(v) {
		case "debian", "ubuntu":
			return FamilyDebian, nil
		case "rhel", "centos", "fedora", "rocky", "almalinux":
			return FamilyRHEL, nil
		}
	}
	return "", fmt.Errorf("unsupported OS family %q (id_like %q): only Debian- and RHEL-like hosts are supported", id, idLike)
}

// LocalIP returns the host's preferred outbound IPv4 address. No packet is
// sent; the dial only asks the kernel to pick a source address.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
