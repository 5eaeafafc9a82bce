// Package transport moves packets for the engine.
//
// # UDP
//
// ListenUDPRange binds the first free port of a range. A reader goroutine
// parses datagrams and posts them to the engine's inbox channel; when the
// inbox is full the datagram is dropped, as the network would.
//
// # TCP relays
//
// A RelayServer accepts clients that identify themselves with a Hello frame
// carrying their public key, answers with its own key, and forwards Route
// frames ([destination key][packet]) to the named client as Deliver frames
// ([source key][packet]). Frames are length prefixed:
//
//	[length(2)][frame type(1)][payload]
//
// DialRelay connects through any proxy.Dialer, so SOCKS5 and HTTP CONNECT
// proxies configured with NewDialer are used for relays.
package transport
