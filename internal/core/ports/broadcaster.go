package ports

import "context"

// Broadcaster submits serialized transactions to the network and returns
// their txid.
type Broadcaster interface {
	Broadcast(ctx context.Context, txHex string) (string, error)
}
