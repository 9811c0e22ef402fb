package netcfg

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"github.com/younglifestyle/rilbridge/common"
)

// FallbackInterface is used when the interface for a connection cannot be found.
const FallbackInterface = "rmnet0"

// DefaultInterfacePattern maps connection id 1 to rmnet0, 2 to rmnet1, ...
const DefaultInterfacePattern = "rmnet%d"

// LinkOps is the subset of *netlink.Handle the configurator uses.
type LinkOps interface {
	LinkByName(name string) (netlink.Link, error)
	AddrReplace(link netlink.Link, addr *netlink.Addr) error
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrDel(link netlink.Link, addr *netlink.Addr) error
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	RouteReplace(route *netlink.Route) error
}

// Options configures a Configurator.
type Options struct {
	InterfacePattern string
	Properties       *Properties
	Ops              LinkOps // Optional: defaults to a new netlink handle.
	DefaultRoute     bool
	Logger           common.Logger
}

// Configurator applies modem-negotiated addressing to host interfaces.
type Configurator struct {
	pattern      string
	props        *Properties
	ops          LinkOps
	defaultRoute bool
	logger       common.Logger
}

// NewConfigurator opens a netlink handle unless opts.Ops is set.
func NewConfigurator(opts Options) (*Configurator, error) {
	if opts.InterfacePattern == "" {
		opts.InterfacePattern = DefaultInterfacePattern
	}
	if opts.Properties == nil {
		opts.Properties, _ = OpenProperties("")
	}
	if opts.Ops == nil {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, fmt.Errorf("netlink handle: %w", err)
		}
		opts.Ops = h
	}
	return &Configurator{
		pattern:      opts.InterfacePattern,
		props:        opts.Properties,
		ops:          opts.Ops,
		defaultRoute: opts.DefaultRoute,
		logger:       common.WithFields(common.OrNop(opts.Logger), "component", "netcfg"),
	}, nil
}

// InterfaceName returns the interface carrying connection cid. When the
// expected link does not exist the fallback interface is returned.
func (c *Configurator) InterfaceName(cid int) (string, error) {
	name := fmt.Sprintf(c.pattern, cid-1)
	if _, err := c.ops.LinkByName(name); err != nil {
		c.logger.Warn("interface not found, using fallback", "iface", name, "fallback", FallbackInterface, "error", err)
		return FallbackInterface, nil
	}
	return name, nil
}

// ApplyConfiguration assigns addr/32 to iface, brings it up, routes through
// gateway when asked to, and records gateway and DNS properties.
func (c *Configurator) ApplyConfiguration(iface string, addr, gateway, dns1, dns2 net.IP) error {
	if addr == nil || addr.To4() == nil {
		return errors.New("netcfg: address must be IPv4")
	}
	link, err := c.ops.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}

	ipnet := &net.IPNet{IP: addr.To4(), Mask: net.CIDRMask(32, 32)}
	if err := c.ops.AddrReplace(link, &netlink.Addr{IPNet: ipnet}); err != nil {
		return fmt.Errorf("address %s on %s: %w", ipnet, iface, err)
	}
	if err := c.ops.LinkSetUp(link); err != nil {
		return fmt.Errorf("link up %s: %w", iface, err)
	}

	if c.defaultRoute {
		route := &netlink.Route{LinkIndex: link.Attrs().Index, Scope: netlink.SCOPE_LINK}
		if gateway != nil && !gateway.Equal(addr) {
			route = &netlink.Route{LinkIndex: link.Attrs().Index, Gw: gateway, Scope: netlink.SCOPE_UNIVERSE}
		}
		if err := c.ops.RouteReplace(route); err != nil {
			return fmt.Errorf("default route on %s: %w", iface, err)
		}
	}

	c.logger.Info("interface configured", "iface", iface, "address", addr, "gateway", gateway, "dns1", dns1, "dns2", dns2)
	return c.props.Set(map[string]string{
		DNS1Key(iface):    ipString(dns1),
		DNS2Key(iface):    ipString(dns2),
		GatewayKey(iface): ipString(gateway),
	})
}

// BringDown removes the addresses of iface, sets it down and clears its properties.
func (c *Configurator) BringDown(iface string) error {
	link, err := c.ops.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}
	addrs, err := c.ops.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return fmt.Errorf("list addresses on %s: %w", iface, err)
	}
	for i := range addrs {
		if err := c.ops.AddrDel(link, &addrs[i]); err != nil {
			c.logger.Warn("address removal failed", "iface", iface, "addr", addrs[i].IPNet, "error", err)
		}
	}
	if err := c.ops.LinkSetDown(link); err != nil {
		return fmt.Errorf("link down %s: %w", iface, err)
	}
	c.logger.Info("interface down", "iface", iface)
	return c.props.Delete(DNS1Key(iface), DNS2Key(iface), GatewayKey(iface))
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
