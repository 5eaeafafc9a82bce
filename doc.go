// Package toxbind is a typed client binding for a Tox-style peer-to-peer
// messaging engine.
//
// A Tox value owns exactly one engine instance. The engine reports every
// result as a numeric code; the binding checks the code before it trusts the
// result and turns it into a value or an error, never both. Codes belong to
// a category (friend add, send message, bootstrap, ...) and are never read
// with another category's table. A code the binding does not know is a
// *ContractError, not a protocol failure.
//
// # Getting Started
//
//	opts := toxbind.NewOptions()
//	tox, err := toxbind.New(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tox.Kill()
//
//	tox.OnFriendRequest(func(t *toxbind.Tox, pk toxbind.PublicKey, msg string, _ interface{}) {
//	    t.FriendAddNoRequest(pk)
//	}, nil)
//	tox.OnFriendMessage(func(t *toxbind.Tox, fn uint32, _ toxbind.MessageType, msg string, _ interface{}) {
//	    t.FriendSendMessage(fn, toxbind.MessageTypeNormal, msg)
//	}, nil)
//
//	pk, _ := toxbind.ParsePublicKey("F404ABAA1C99A9D37D61AB54898F56793E1DEF8BD46B1038B9D822E8460FAB67")
//	if err := tox.Bootstrap("node.tox.biribiri.org", 33445, pk); err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	tox.Run(ctx)
//
// # Callbacks
//
// Each event kind has one handler slot; registering again replaces the
// handler and nil removes it. Handlers run only from Iterate (or Run), on
// the calling goroutine, after the engine step has finished and the handle
// has been unlocked, so they may call any method of the handle. A handler
// that needs to hand work to another goroutine can use an EventQueue.
//
// # Errors
//
// Every failure is an *Error with a Category and a Code, and each
// (category, reason) pair has a sentinel:
//
//	_, err := tox.FriendSendMessage(n, toxbind.MessageTypeNormal, text)
//	switch {
//	case errors.Is(err, toxbind.ErrSendMessageFriendNotConnected):
//	    // wait for OnFriendConnectionStatus
//	case errors.Is(err, toxbind.ErrSendMessageTooLong):
//	    // split the text
//	}
//
// Error.Class separates misuse (ClassArgument) from missing friends
// (ClassNotFound) and resource exhaustion (ClassAllocation).
//
// # Saved State
//
// Savedata returns a blob that restores the identity, profile, friend list
// and known relays when passed back in Options.Savedata. EncryptSavedata and
// DecryptSavedata protect it with a passphrase.
package toxbind
