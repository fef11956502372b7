package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// SystemHandler serves operational endpoints: liveness and the LAN addresses
// peers can use to reach the relay.
type SystemHandler struct {
	port string
}

// NewSystemHandler creates a SystemHandler for a relay bound to addr
// (host:port or :port form).
func NewSystemHandler(addr string) *SystemHandler {
	port := addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port = addr[idx+1:]
	}
	return &SystemHandler{port: port}
}

// Health reports liveness.
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ServerInfo lists the non-loopback IPv4 addresses of this host, so a client
// on one device can tell the others where to connect.
func (h *SystemHandler) ServerInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, ServerInfoResponse{
		Addresses: LANAddresses(),
		Port:      h.port,
	})
}

// LANAddresses returns every non-loopback IPv4 address on the host. The
// startup banner uses it too, so users see clickable URLs for other devices.
func LANAddresses() []string {
	addresses := []string{}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return addresses
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			addresses = append(addresses, ip4.String())
		}
	}
	return addresses
}
