package sealclient

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/keyserver"
)

// LedgerClient is the injectable collaborator that resolves a ledger object
// id to its raw record bytes (for key servers, the layout
// DecodeKeyServerRecord parses). The core never talks to a ledger RPC
// endpoint directly.
type LedgerClient interface {
	GetObject(ctx context.Context, objectID [32]byte) ([]byte, error)
}

// EncodeKeyServerRecord builds the raw record bytes a LedgerClient is
// expected to return for a KeyServer object: name (u32-len-prefixed) || url
// (u32-len-prefixed) || keyType (u8) || pk (96 bytes). Exported so
// standalone LedgerClient implementations (CLI manifests, test fixtures)
// can produce records DecodeKeyServerRecord will accept.
func EncodeKeyServerRecord(name, url string, keyType byte, pk *curve.G2) []byte {
	var buf []byte
	writeLenPrefixed := func(s string) {
		var l [4]byte
		binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
		buf = append(buf, l[:]...)
		buf = append(buf, s...)
	}
	writeLenPrefixed(name)
	writeLenPrefixed(url)
	buf = append(buf, keyType)
	buf = append(buf, pk.ToBytes()...)
	return buf
}

// DecodeKeyServerRecord parses the layout EncodeKeyServerRecord produces.
// The exact on-ledger move struct layout is an external contract out of
// scope here; this is the shape the companion ledger client is expected to
// hand back.
func DecodeKeyServerRecord(objectID [32]byte, raw []byte) (*keyserver.KeyServer, error) {
	pos := 0
	readLenPrefixed := func() (string, error) {
		if len(raw)-pos < 4 {
			return "", fmt.Errorf("sealclient: truncated key server record")
		}
		n := binary.LittleEndian.Uint32(raw[pos : pos+4])
		pos += 4
		if len(raw)-pos < int(n) {
			return "", fmt.Errorf("sealclient: truncated key server record")
		}
		s := string(raw[pos : pos+int(n)])
		pos += int(n)
		return s, nil
	}

	name, err := readLenPrefixed()
	if err != nil {
		return nil, err
	}
	url, err := readLenPrefixed()
	if err != nil {
		return nil, err
	}
	if len(raw)-pos < 1+curve.G2Size {
		return nil, fmt.Errorf("sealclient: truncated key server record")
	}
	keyType := raw[pos]
	pos++
	pk, err := curve.G2FromBytes(raw[pos : pos+curve.G2Size])
	if err != nil {
		return nil, fmt.Errorf("sealclient: invalid key server public key: %w", err)
	}

	return &keyserver.KeyServer{
		ObjectID: objectID,
		Name:     name,
		URL:      url,
		KeyType:  keyserver.KeyType(keyType),
		Pk:       pk,
	}, nil
}
