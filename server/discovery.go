package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// DiscoveryProbe is the datagram a client broadcasts to find services.
const DiscoveryProbe = "WRMS_DISCOVERY_V1"

// DiscoveryReply is the JSON answer to a probe.
type DiscoveryReply struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
	Name string `json:"name"`
}

type discovery struct {
	conn net.PacketConn
	port int
	name string
	log  *slog.Logger
}

func (d *discovery) serve(ctx context.Context) error {
	buf := make([]byte, 2048)
	for {
		n, src, err := d.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("discovery: %w", err)
		}
		if string(bytes.TrimSpace(buf[:n])) != DiscoveryProbe {
			continue
		}
		if err := d.reply(src); err != nil {
			d.log.Debug("ggass: discovery reply failed", "peer", src.String(), "err", err)
		}
	}
}

func (d *discovery) reply(src net.Addr) error {
	peer, ok := src.(*net.UDPAddr)
	if !ok {
		return fmt.Errorf("unexpected peer address %T", src)
	}
	ip, err := localIPFor(peer.IP)
	if err != nil {
		return err
	}
	b, err := json.Marshal(DiscoveryReply{IP: ip.String(), Port: d.port, Name: d.name})
	if err != nil {
		return err
	}
	_, err = d.conn.WriteTo(b, src)
	return err
}

// localIPFor returns the local address the system would route to dst from.
// Connecting a UDP socket sends nothing.
func localIPFor(dst net.IP) (net.IP, error) {
	c, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: dst, Port: 9})
	if err != nil {
		return nil, fmt.Errorf("no route to %s: %w", dst, err)
	}
	defer c.Close()
	return c.LocalAddr().(*net.UDPAddr).IP, nil
}
