// Package dht implements the known-node table the engine uses to find peers.
//
// Nodes are keyed by public key and bucketed by XOR distance from our own
// key, Kademlia style. Every authenticated DHT packet refreshes the sender's
// entry, so a friend that pinged any node we talk to becomes reachable
// through a get-nodes lookup.
//
// DHT packets travel in a sealed envelope: the sender's public key, a nonce,
// and the inner payload boxed to the recipient's key. A node that holds a
// different key than the one we bootstrapped with cannot open the request and
// never answers.
//
//	rt := dht.NewRoutingTable(self.Public, 8)
//	rt.Touch(peerKey, addr, time.Now())
//	closest := rt.FindClosestNodes(friendKey, dht.MaxNodesPerResponse)
//
//	packet, err := dht.Seal(self, peerKey, dht.EncodeGetNodes(friendKey, id))
package dht
