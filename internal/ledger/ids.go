package ledger

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// maxID keeps generated ids inside the range a JavaScript number holds
// exactly, so the persisted collection stays readable by the browser widget.
const maxID = 1 << 53

// maxIDAttempts bounds re-draws on collision. With n stored records a draw
// collides with probability n/2^53, so a second attempt is already rare.
const maxIDAttempts = 8

var ErrIDExhausted = errors.New("could not generate a unique transaction id")

// IDSource draws a candidate transaction id.
type IDSource func() (int64, error)

// RandomIDs draws uniformly from [1, 2^53).
func RandomIDs() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxID-1))
	if err != nil {
		return 0, err
	}
	return n.Int64() + 1, nil
}

// SequentialIDs returns an IDSource counting up from start. Tests use it to
// get predictable ids.
func SequentialIDs(start int64) IDSource {
	next := start
	return func() (int64, error) {
		id := next
		next++
		return id, nil
	}
}
