package sealclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mystenlabs/seal-go/pkg/config"
	"github.com/mystenlabs/seal-go/pkg/curve"
	"github.com/mystenlabs/seal-go/pkg/ibe"
	"github.com/mystenlabs/seal-go/pkg/keyserver"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
	"github.com/mystenlabs/seal-go/pkg/session"
)

type serviceResponse struct {
	ServiceID string `json:"service_id"`
	Pop       string `json:"pop"`
}

func (c *SealClient) fetchProofOfPossession(ctx context.Context, server *keyserver.KeyServer) (*curve.G1, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL+"/v1/service", nil)
	if err != nil {
		return nil, fmt.Errorf("sealclient: failed to build service request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sealclient: service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sealclient: service endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("sealclient: failed to decode service response: %w", err)
	}

	popBytes, err := base64.StdEncoding.DecodeString(parsed.Pop)
	if err != nil {
		return nil, fmt.Errorf("sealclient: invalid pop encoding: %w", err)
	}
	return curve.G1FromBytes(popBytes)
}

type fetchKeyRequest struct {
	PTB                string               `json:"ptb"`
	EncKey             string               `json:"enc_key"`
	EncVerificationKey string               `json:"enc_verification_key"`
	RequestSignature   string               `json:"request_signature"`
	Certificate        *session.Certificate `json:"certificate"`
}

type decryptionKeyEntry struct {
	ID           string   `json:"id"`
	EncryptedKey []string `json:"encrypted_key"`
}

type fetchKeyResponse struct {
	DecryptionKeys []decryptionKeyEntry `json:"decryption_keys"`
}

type fetchKeyErrorBody struct {
	Error string `json:"error"`
}

// elGamalDecryptG1 recovers the G1 point m = c2 - c1·sk, the fixed ElGamal
// scheme over G1 used to wrap a server's response to a fetch_key request.
func elGamalDecryptG1(c1, c2 *curve.G1, sk *curve.Scalar) *curve.G1 {
	c1sk := curve.MulG1(c1, sk)
	return curve.AddG1(c2, curve.NegG1(c1sk))
}

// FetchKeys resolves user secret key shares for ids from the configured key
// servers and populates the cache. It returns success once at least
// threshold servers have returned a valid key for every requested id;
// outstanding requests are cancelled at that point. See spec §4.7.2.
func (c *SealClient) FetchKeys(ctx context.Context, ids [][]byte, txBytes []byte, sess *session.SessionKey, threshold int) error {
	servers, err := c.resolveKeyServers(ctx)
	if err != nil {
		return err
	}
	if threshold < 1 || threshold > len(servers) {
		return sealerrors.User(sealerrors.CodeInvalidThreshold, "sealclient: threshold %d out of [1, %d]", threshold, len(servers))
	}

	packageID := sess.PackageID()
	fullIDs := make([]string, len(ids))
	for i, id := range ids {
		fullID, err := ibe.CreateFullID(ibe.DST, packageID[:], id)
		if err != nil {
			return sealerrors.UserWrap(sealerrors.CodeInvalidPackage, err, "sealclient: failed to build full id")
		}
		fullIDs[i] = fullID
	}

	completed := 0
	pending := make([]*keyserver.KeyServer, 0, len(servers))
	for _, server := range servers {
		allCached := true
		for _, fullID := range fullIDs {
			if !c.cache.Has(fullID, server.ObjectID) {
				allCached = false
				break
			}
		}
		if allCached {
			completed++
		} else {
			pending = append(pending, server)
		}
	}
	if completed >= threshold {
		return nil
	}

	for _, server := range pending {
		if server.KeyType != keyserver.KeyTypeBonehFranklinBLS12381 {
			return sealerrors.User(sealerrors.CodeInvalidKeyServer, "sealclient: unsupported key type for server %s", server.URL)
		}
	}

	cert, err := sess.GetCertificate()
	if err != nil {
		return err
	}
	params, egPk, egVk, err := sess.CreateRequestParams(txBytes)
	if err != nil {
		return err
	}
	egSk, err := curve.ScalarFromBytes(params.DecryptionKey[:])
	if err != nil {
		return fmt.Errorf("sealclient: failed to parse ElGamal secret: %w", err)
	}

	var ptbBody []byte
	if len(txBytes) > 0 {
		ptbBody = txBytes[1:]
	}

	reqBody := fetchKeyRequest{
		PTB:                base64.StdEncoding.EncodeToString(ptbBody),
		EncKey:             base64.StdEncoding.EncodeToString(egPk.ToBytes()),
		EncVerificationKey: base64.StdEncoding.EncodeToString(egVk.ToBytes()),
		RequestSignature:   base64.StdEncoding.EncodeToString(params.RequestSignature),
		Certificate:        cert,
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	errs := make([]*sealerrors.SealError, 0, len(pending))
	remaining := len(pending)

	g, gctx := errgroup.WithContext(groupCtx)
	for _, server := range pending {
		server := server
		g.Go(func() error {
			sErr := c.fetchOneServer(gctx, server, fullIDs, ids, reqBody, sess.PackageID(), egSk)

			mu.Lock()
			defer mu.Unlock()
			remaining--

			if sErr == nil {
				completed++
				if completed >= threshold {
					cancel()
				}
				return nil
			}
			if sErr.Code == sealerrors.CodeAborted {
				return nil
			}
			errs = append(errs, sErr)
			if remaining-len(errs) < threshold-completed {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	if completed >= threshold {
		return nil
	}
	if maj := sealerrors.MajorityError(errs); maj != nil {
		return maj
	}
	return sealerrors.User(sealerrors.CodeInsufficientShares, "sealclient: fetchKeys could not reach threshold %d", threshold)
}

// fetchOneServer performs one server's fetch_key round trip and caches each
// recovered and verified partial key, even when the server returns only some
// of the requested fullIds. It returns nil on a complete match, or a
// *SealError otherwise (including CodeAborted if gctx was already cancelled).
func (c *SealClient) fetchOneServer(gctx context.Context, server *keyserver.KeyServer, fullIDs []string, ids [][]byte, reqBody fetchKeyRequest, packageID [32]byte, egSk *curve.Scalar) *sealerrors.SealError {
	reqCtx, cancel := context.WithTimeout(gctx, c.requestTimeout())
	defer cancel()

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return sealerrors.Transport(sealerrors.CodeNetwork, err, "sealclient: failed to marshal fetch_key request")
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, server.URL+"/v1/fetch_key", bytes.NewReader(payload))
	if err != nil {
		return sealerrors.Transport(sealerrors.CodeNetwork, err, "sealclient: failed to build fetch_key request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Request-Id", uuid.NewString())
	httpReq.Header.Set("Client-Sdk-Type", config.ClientSdkType)
	httpReq.Header.Set("Client-Sdk-Version", config.ClientSdkVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if gctx.Err() != nil {
			return sealerrors.Transport(sealerrors.CodeAborted, err, "sealclient: fetch_key cancelled for %s", server.URL)
		}
		return sealerrors.Transport(sealerrors.CodeNetwork, err, "sealclient: fetch_key request failed for %s", server.URL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sealerrors.Transport(sealerrors.CodeNetwork, err, "sealclient: failed to read fetch_key response from %s", server.URL)
	}

	requestID := resp.Header.Get("Request-Id")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed fetchKeyErrorBody
		_ = json.Unmarshal(body, &parsed)
		code := sealerrors.ServerCodeFromString(parsed.Error)
		return sealerrors.Server(code, requestID, resp.StatusCode, "sealclient: %s returned %s", server.URL, parsed.Error)
	}

	var parsed fetchKeyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return sealerrors.Server(sealerrors.CodeGeneralError, requestID, resp.StatusCode, "sealclient: failed to decode fetch_key response from %s: %s", server.URL, err)
	}

	byIDHex := make(map[string][]byte, len(ids))
	for i, id := range ids {
		byIDHex[fullIDs[i]] = id
	}

	matched := 0
	for _, entry := range parsed.DecryptionKeys {
		fullID, ok := findMatchingFullID(fullIDs, entry.ID)
		if !ok {
			c.logger.Sugar().Warnw("fetch_key response id did not match any requested id", "server", server.URL, "id", entry.ID)
			continue
		}
		if len(entry.EncryptedKey) != 2 {
			c.logger.Sugar().Warnw("fetch_key response has malformed encrypted_key", "server", server.URL, "id", entry.ID)
			continue
		}
		c1Bytes, err1 := base64.StdEncoding.DecodeString(entry.EncryptedKey[0])
		c2Bytes, err2 := base64.StdEncoding.DecodeString(entry.EncryptedKey[1])
		if err1 != nil || err2 != nil {
			c.logger.Sugar().Warnw("fetch_key response has invalid base64", "server", server.URL, "id", entry.ID)
			continue
		}
		c1, err1 := curve.G1FromBytes(c1Bytes)
		c2, err2 := curve.G1FromBytes(c2Bytes)
		if err1 != nil || err2 != nil {
			c.logger.Sugar().Warnw("fetch_key response has non-canonical G1 points", "server", server.URL, "id", entry.ID)
			continue
		}

		usk := elGamalDecryptG1(c1, c2, egSk)
		ok, err := ibe.VerifyUserSecretKey(usk, fullID, server.Pk)
		if err != nil || !ok {
			c.logger.Sugar().Warnw("recovered user secret key failed verification", "server", server.URL, "id", entry.ID)
			continue
		}

		c.cache.Put(fullID, server.ObjectID, usk)
		matched++
	}

	if matched != len(fullIDs) {
		return sealerrors.Server(sealerrors.CodeGeneralError, requestID, resp.StatusCode, "sealclient: %s returned a partial key set (%d/%d)", server.URL, matched, len(fullIDs))
	}
	return nil
}

func findMatchingFullID(fullIDs []string, idHex string) (string, bool) {
	for _, f := range fullIDs {
		if f == idHex {
			return f, true
		}
	}
	return "", false
}
