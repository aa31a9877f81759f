package lookup

import (
	"net/netip"
	"strings"
)

// IPFromResult extracts the conventional address from a lookup result:
// either a bare JSON string or an object with an "ip" string field.
func IPFromResult(v any) (netip.Addr, bool) {
	var s string
	switch r := v.(type) {
	case string:
		s = r
	case map[string]any:
		ip, ok := r["ip"].(string)
		if !ok {
			return netip.Addr{}, false
		}
		s = ip
	default:
		return netip.Addr{}, false
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
