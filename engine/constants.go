package engine

import "time"

const (
	// DHT
	dhtPingInterval   = 20 * time.Second
	dhtNodeTimeout    = 60 * time.Second
	bootstrapInterval = 5 * time.Second
	queryTimeout      = 10 * time.Second
	lookupInterval    = 2 * time.Second

	// Friends
	friendRequestInterval = 5 * time.Second
	handshakeInterval     = 2 * time.Second
	handshakeTimeout      = 5 * time.Second
	handshakeFreshness    = 60 * time.Second
	// handshakeNudge is the shortest gap between handshakes when the
	// friend announces itself.
	handshakeNudge     = 250 * time.Millisecond
	friendPingInterval = 4 * time.Second
	friendTimeout      = 12 * time.Second

	// Relays
	relayDialTimeout  = 10 * time.Second
	relayPingInterval = 20 * time.Second
	relayBackoffMin   = time.Second
	relayBackoffMax   = time.Minute

	// Iteration
	idleInterval         = 50 * time.Millisecond
	busyInterval         = 20 * time.Millisecond
	maxPacketsPerIterate = 512
	maxPeerAddrs         = 256
)
