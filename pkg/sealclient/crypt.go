package sealclient

import (
	"context"

	"github.com/mystenlabs/seal-go/pkg/config"
	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/dem"
	"github.com/mystenlabs/seal-go/pkg/envelope"
	"github.com/mystenlabs/seal-go/pkg/ibe"
	"github.com/mystenlabs/seal-go/pkg/kdf"
	"github.com/mystenlabs/seal-go/pkg/keyserver"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
	"github.com/mystenlabs/seal-go/pkg/session"
	"github.com/mystenlabs/seal-go/pkg/threshold"
)

// EncryptParams configures a single encrypt call. Servers carry their own
// public keys, so they need not be the same set the SealClient was
// constructed with — an application may encrypt to servers it has not
// configured for decryption verification.
type EncryptParams struct {
	Servers   []*keyserver.KeyServer
	KemType   config.KemType
	DemType   config.DemType
	Threshold byte
	PackageID [32]byte
	ID        []byte
	Data      []byte
	Aad       []byte
}

// EncryptResult is the output of Encrypt: the serialized envelope plus the
// DEM key derived from the freshly generated root key, returned so the
// caller may cache or back it up. demKey must never be handed to an
// untrusted party.
type EncryptResult struct {
	EncryptedObject []byte
	Key             []byte
}

// Encrypt implements the high-level client-side encrypt operation: split a
// fresh root key across servers under batched IBE, and encrypt data under
// a key derived from that root key. See spec §4.7.3. The servers encrypted
// to are named explicitly in params and need not match the servers this
// SealClient was configured with for decryption.
func (c *SealClient) Encrypt(params EncryptParams) (*EncryptResult, error) {
	n := len(params.Servers)
	if n == 0 || n > 255 {
		return nil, sealerrors.User(sealerrors.CodeInvalidKeyServer, "sealclient: servers count must be in [1, 255], got %d", n)
	}
	if params.Threshold < 1 || int(params.Threshold) > n {
		return nil, sealerrors.User(sealerrors.CodeInvalidThreshold, "sealclient: threshold %d out of [1, %d]", params.Threshold, n)
	}
	if params.KemType != "" && params.KemType != config.KemTypeBonehFranklinBLS12381DemCCA {
		return nil, sealerrors.User(sealerrors.CodeUnsupportedFeature, "sealclient: unsupported kem type %s", params.KemType)
	}
	demType := params.DemType
	if demType == "" {
		demType = config.DemTypeAesGcm256
	}

	baseKey, err := dem.GenerateKey()
	if err != nil {
		return nil, err
	}

	demKey := kdf.DeriveKey(kdf.PurposeDEM, baseKey)

	cipher, err := encryptPayload(demType, demKey, params.Data, params.Aad)
	if err != nil {
		return nil, err
	}

	shares, err := threshold.Split(baseKey, n, int(params.Threshold))
	if err != nil {
		return nil, err
	}

	fullID, err := ibe.CreateFullID(ibe.DST, params.PackageID[:], params.ID)
	if err != nil {
		return nil, sealerrors.UserWrap(sealerrors.CodeInvalidPackage, err, "sealclient: failed to build full id")
	}

	publicKeys := make([]*curve.G2, n)
	messages := make([]ibe.Message, n)
	services := make([]envelope.ServiceEntry, n)
	for i, server := range params.Servers {
		if err := server.Validate(); err != nil {
			return nil, err
		}
		publicKeys[i] = server.Pk

		var m [32]byte
		copy(m[:], shares[i].Data)
		messages[i] = ibe.Message{M: m, Info: []byte{shares[i].Index}}
		services[i] = envelope.ServiceEntry{ObjectID: server.ObjectID, Index: shares[i].Index}
	}

	var randomnessKey [32]byte
	copy(randomnessKey[:], kdf.DeriveKey(kdf.PurposeEncryptedRandomness, baseKey))

	ibeEnc, err := ibe.EncryptBatched(publicKeys, fullID, messages, randomnessKey)
	if err != nil {
		return nil, err
	}

	encShares := make([][32]byte, n)
	for i, s := range ibeEnc.EncryptedShares {
		encShares[i] = s.Ciphertext
	}

	obj := &envelope.EncryptedObject{
		Version:   envelope.Version,
		PackageID: params.PackageID,
		ID:        params.ID,
		Services:  services,
		Threshold: params.Threshold,
		Shares: envelope.EncryptedShares{
			Nonce:               ibeEnc.Nonce,
			Shares:              encShares,
			EncryptedRandomness: ibeEnc.EncryptedRandomness,
		},
		Cipher: cipher,
	}

	return &EncryptResult{
		EncryptedObject: envelope.Serialize(obj),
		Key:             demKey,
	}, nil
}

func encryptPayload(demType config.DemType, demKey, data, aad []byte) (envelope.Ciphertext, error) {
	switch demType {
	case config.DemTypeAesGcm256:
		blob, err := dem.Aes256GcmEncrypt(demKey, data, aad)
		if err != nil {
			return envelope.Ciphertext{}, err
		}
		return envelope.Ciphertext{Variant: envelope.DemVariantAes256Gcm, Blob: blob, Aad: aad}, nil
	case config.DemTypeHmac256Ctr:
		result, err := dem.Hmac256CtrEncrypt(demKey, data, aad)
		if err != nil {
			return envelope.Ciphertext{}, err
		}
		var mac [32]byte
		copy(mac[:], result.Mac)
		return envelope.Ciphertext{Variant: envelope.DemVariantHmac256Ctr, Blob: result.Blob, Mac: mac, Aad: aad}, nil
	case config.DemTypePlain:
		return envelope.Ciphertext{Variant: envelope.DemVariantPlain}, nil
	default:
		return envelope.Ciphertext{}, sealerrors.User(sealerrors.CodeUnsupportedFeature, "sealclient: unsupported dem type %s", demType)
	}
}

// DecryptParams configures a single decrypt call.
type DecryptParams struct {
	Data       []byte
	SessionKey *session.SessionKey
	TxBytes    []byte
}

// Decrypt implements the high-level client-side decrypt operation: parse
// the envelope, reconcile its service list against this client's
// configured servers, fetch and recombine the root key, and open the
// payload. See spec §4.7.4.
func (c *SealClient) Decrypt(ctx context.Context, params DecryptParams) ([]byte, error) {
	obj, err := envelope.Parse(params.Data)
	if err != nil {
		return nil, err
	}

	if err := c.reconcileKeyServers(obj.Services); err != nil {
		return nil, err
	}
	if int(obj.Threshold) > len(c.serverObjectIDs) {
		return nil, sealerrors.User(sealerrors.CodeInvalidThreshold, "sealclient: envelope threshold %d exceeds configured server count %d", obj.Threshold, len(c.serverObjectIDs))
	}

	if err := c.FetchKeys(ctx, [][]byte{obj.ID}, params.TxBytes, params.SessionKey, int(obj.Threshold)); err != nil {
		return nil, err
	}

	fullID, err := ibe.CreateFullID(ibe.DST, obj.PackageID[:], obj.ID)
	if err != nil {
		return nil, sealerrors.UserWrap(sealerrors.CodeInvalidPackage, err, "sealclient: failed to build full id")
	}

	shares := make([]threshold.Share, 0, len(obj.Services))
	for i, svc := range obj.Services {
		usk, ok := c.cache.Get(fullID, svc.ObjectID)
		if !ok {
			continue
		}
		m, err := ibe.Decrypt(obj.Shares.Nonce, usk, obj.Shares.Shares[i], []byte{svc.Index})
		if err != nil {
			c.logger.Sugar().Warnw("failed to decrypt share", "server", svc.ObjectID, "error", err)
			continue
		}
		shares = append(shares, threshold.Share{Index: svc.Index, Data: m[:]})
	}

	if len(shares) < int(obj.Threshold) {
		return nil, sealerrors.User(sealerrors.CodeInsufficientShares, "sealclient: only %d of %d required shares available", len(shares), obj.Threshold)
	}

	baseKey, err := threshold.Combine(shares, int(obj.Threshold))
	if err != nil {
		return nil, err
	}
	demKey := kdf.DeriveKey(kdf.PurposeDEM, baseKey)

	switch obj.Cipher.Variant {
	case envelope.DemVariantAes256Gcm:
		return dem.Aes256GcmDecrypt(demKey, obj.Cipher.Blob, obj.Cipher.Aad)
	case envelope.DemVariantHmac256Ctr:
		return dem.Hmac256CtrDecrypt(demKey, &dem.Hmac256CtrResult{Blob: obj.Cipher.Blob, Mac: obj.Cipher.Mac[:]}, obj.Cipher.Aad)
	case envelope.DemVariantPlain:
		return demKey, nil
	default:
		return nil, sealerrors.User(sealerrors.CodeUnsupportedFeature, "sealclient: unsupported ciphertext variant %d", obj.Cipher.Variant)
	}
}

// reconcileKeyServers requires that, for every (objectId, count) in the
// client's configured server multiset, the envelope's service multiset has
// exactly the same count. The envelope may name additional servers the
// client does not use; it must not omit or under-count any configured one.
func (c *SealClient) reconcileKeyServers(services []envelope.ServiceEntry) error {
	clientCounts := make(map[[32]byte]int, len(c.serverObjectIDs))
	for _, id := range c.serverObjectIDs {
		clientCounts[id]++
	}
	envelopeCounts := make(map[[32]byte]int, len(services))
	for _, s := range services {
		envelopeCounts[s.ObjectID]++
	}
	for id, count := range clientCounts {
		if envelopeCounts[id] != count {
			return sealerrors.User(sealerrors.CodeInconsistentKeyServers, "sealclient: envelope service multiset does not match configured servers")
		}
	}
	return nil
}
