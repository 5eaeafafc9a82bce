// Package friend holds the per-friend state the engine keeps: public key,
// nospam used for the outgoing request, nickname, status message, presence,
// connection state, typing flag and last-seen time.
//
// Friend requests travel sealed with NaCl box so only the addressee can read
// them:
//
//	packet, err := friend.SealRequest(self, peerPublicKey, peerNospam, []byte("hi"))
//	req, err := friend.OpenRequest(packet, peerKeys)
//
// The recipient compares req.Nospam against its own before reporting the
// request. RequestManager suppresses duplicates while the sender keeps
// resending.
package friend
