package syntax

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// ErrInvalidCID reports a string that is not a decodable content identifier.
var ErrInvalidCID = errors.New("invalid CID")

// ParseCID decodes raw as a multibase/multicodec/multihash content
// identifier. Equality between CIDs is structural: compare decoded values
// with Cid.Equals, not their string forms.
func ParseCID(raw string) (cid.Cid, error) {
	c, err := cid.Decode(raw)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %v", ErrInvalidCID, err)
	}
	return c, nil
}
