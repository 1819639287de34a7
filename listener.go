package main

import (
	"net"

	"github.com/pires/go-proxyproto"
)

// listen opens the TCP listener for the web API. Behind HAProxy the PROXY
// protocol header carries the real client address, so RemoteAddr in the
// auth logs is the player's tool and not the load balancer.
func listen(address string, proxyProtocol bool) (net.Listener, error) {
	list, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	if !proxyProtocol {
		return list, nil
	}
	return &proxyproto.Listener{Listener: list}, nil
}
