package sip008

import (
	"net"
	"net/url"
	"strconv"
)

// SupportedVersion is the only document version this implementation accepts.
const SupportedVersion = 1

// Document is a parsed server-list document.
type Document struct {
	Version int           `json:"version"`
	Servers []ServerEntry `json:"servers"`
}

// ServerEntry is a single upstream server in a document. Address fields
// are optional; an entry without them is kept but never routed to.
type ServerEntry struct {
	ID         string `json:"id"`
	Server     string `json:"server"`
	ServerPort int    `json:"server_port"`
	Name       string `json:"name"`
	Weight     int    `json:"weight"`
}

// URL builds the upstream URL for the entry, or nil if the entry has no
// address.
func (e ServerEntry) URL() *url.URL {
	if e.Server == "" {
		return nil
	}

	host := e.Server
	if e.ServerPort > 0 {
		host = net.JoinHostPort(e.Server, strconv.Itoa(e.ServerPort))
	}

	return &url.URL{Scheme: "http", Host: host}
}
