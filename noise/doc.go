// Package noise wraps github.com/flynn/noise for friend sessions.
//
// Both peers already know each other's static key from the friend list, so
// the IK pattern (ChaCha20-Poly1305, SHA256, Curve25519) is used:
//
//	init, _ := noise.NewIKHandshake(alice, bob.Public[:], noise.Initiator)
//	msg1, _ := init.Initiate(time.Now())
//
//	resp, _ := noise.NewIKHandshake(bob, nil, noise.Responder)
//	peer, sent, _ := resp.ReadInitiation(msg1) // check peer is a friend, sent is fresh
//	msg2, bobSession, _ := resp.Respond(time.Now())
//
//	aliceSession, _ := init.Finish(msg2, time.Now())
//
// Each handshake message carries the sender's clock so the responder can
// discard replayed initiations. Sessions use explicit counters instead of the
// implicit nonce of noise.CipherState, because datagrams may arrive out of
// order.
package noise
