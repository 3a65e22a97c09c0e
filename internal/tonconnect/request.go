package tonconnect

import (
	"time"
)

// Message is a single outgoing transfer inside a wallet request.
type Message struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
	Payload string `json:"payload,omitempty"`
}

// Request is the payload handed to the wallet's sendTransaction call.
type Request struct {
	ValidUntil int64     `json:"validUntil"`
	Messages   []Message `json:"messages"`
}

// Receipt is what the wallet returns once the user signed the request.
type Receipt struct {
	BOC string `json:"boc"`
}

// Transfer is a user-entered transfer, amount in TON.
type Transfer struct {
	To      string
	Amount  float64
	Payload string
}

// Prompt is shown to the user before a large transfer is built.
type Prompt struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func (r Request) Expires() time.Time {
	return time.Unix(r.ValidUntil, 0)
}
