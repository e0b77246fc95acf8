// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
)

// formatVersion prefixes every encoded value.
const formatVersion byte = 1

// encode serializes a value as snappy-compressed RLP.
func encode(value any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, err
	}
	res := make([]byte, 1, 1+snappy.MaxEncodedLen(len(data)))
	res[0] = formatVersion
	return append(res, snappy.Encode(nil, data)...), nil
}

// decode is the inverse of encode. The target must be a pointer.
func decode(data []byte, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if data[0] != formatVersion {
		return fmt.Errorf("unsupported format version %d", data[0])
	}
	raw, err := snappy.Decode(nil, data[1:])
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(raw, target)
}
