package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/keyserver"
	"github.com/mystenlabs/seal-go/pkg/sealclient"
)

// manifestEntryJSON is the on-disk stand-in for a KeyServer ledger object.
type manifestEntryJSON struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	KeyType  byte   `json:"keyType"`
	Pk       string `json:"pk"`
}

type manifestEntry struct {
	objectID [32]byte
	name     string
	url      string
	keyType  byte
	pk       *curve.G2
}

type manifest []manifestEntry

func loadManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var raw []manifestEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	out := make(manifest, len(raw))
	for i, e := range raw {
		objID, err := decodeHex32(e.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: invalid objectId: %w", i, err)
		}
		pkBytes, err := hex.DecodeString(e.Pk)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: invalid pk hex: %w", i, err)
		}
		pk, err := curve.G2FromBytes(pkBytes)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: invalid pk: %w", i, err)
		}
		out[i] = manifestEntry{objectID: objID, name: e.Name, url: e.URL, keyType: e.KeyType, pk: pk}
	}
	return out, nil
}

func (m manifest) objectIDs() [][32]byte {
	ids := make([][32]byte, len(m))
	for i, e := range m {
		ids[i] = e.objectID
	}
	return ids
}

func (m manifest) keyServers() ([]*keyserver.KeyServer, error) {
	out := make([]*keyserver.KeyServer, len(m))
	for i, e := range m {
		out[i] = &keyserver.KeyServer{
			ObjectID: e.objectID,
			Name:     e.name,
			URL:      e.url,
			KeyType:  keyserver.KeyType(e.keyType),
			Pk:       e.pk,
		}
	}
	return out, nil
}

// ledgerClient returns a LedgerClient whose responses are synthesized
// straight from the manifest, standing in for a real ledger RPC endpoint.
func (m manifest) ledgerClient() sealclient.LedgerClient {
	records := make(map[[32]byte][]byte, len(m))
	for _, e := range m {
		records[e.objectID] = sealclient.EncodeKeyServerRecord(e.name, e.url, e.keyType, e.pk)
	}
	return &manifestLedgerClient{records: records}
}

type manifestLedgerClient struct {
	records map[[32]byte][]byte
}

func (c *manifestLedgerClient) GetObject(_ context.Context, objectID [32]byte) ([]byte, error) {
	raw, ok := c.records[objectID]
	if !ok {
		return nil, fmt.Errorf("sealctl: no manifest entry for object %x", objectID)
	}
	return raw, nil
}
