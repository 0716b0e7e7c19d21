package mw

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const forwardedForHeader = "X-Forwarded-For"

// parseURI parses URI into api, version and root method.
//
// Example 1: /api/v1/method/other -> (api, v1, method)
//
// Example 2: /api/v2/ -> (api, v2, "")
//
// Example 3: /api/v2 -> (api, v2, "")
func parseURI(uri string) (string, string, string, error) {
	if uri == "" || uri == "/" || uri[0] != '/' {
		return "", "", "", fmt.Errorf("incorrect URI format: %q", uri)
	}

	uri, _, _ = strings.Cut(uri, "?")

	uriParts := strings.Split(uri[1:], "/")
	if len(uriParts) < 2 || uriParts[1] == "" {
		return "", "", "", fmt.Errorf("not enough parts of URI: %q", uri)
	}

	method := ""
	if len(uriParts) > 2 {
		method = uriParts[2]
	}

	return uriParts[0], uriParts[1], method, nil
}

// TrustedProxies is a set of networks allowed to report the client address
// in X-Forwarded-For.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies parses IPs and CIDRs.
func ParseTrustedProxies(list []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if strings.Contains(item, "/") {
			prefix, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
			}
			proxies = append(proxies, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, nil
}

func (p TrustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseClientAddr returns the client address of the request. It is the host
// part of RemoteAddr unless the request came through a trusted proxy, then
// it is the rightmost X-Forwarded-For hop that is not a trusted proxy.
func parseClientAddr(r *http.Request, trusted TrustedProxies) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if !trusted.contains(host) {
		return host
	}

	hops := strings.Split(strings.Join(r.Header.Values(forwardedForHeader), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !trusted.contains(hop) {
			return hop
		}
	}

	return host
}
