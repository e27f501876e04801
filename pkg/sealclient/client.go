// Package sealclient ties together the curve, kdf, dem, ibe, threshold,
// envelope, keyserver, cache and session packages into the public
// encrypt/decrypt/fetchKeys surface.
package sealclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mystenlabs/seal-go/pkg/cache"
	"github.com/mystenlabs/seal-go/pkg/config"
	"github.com/mystenlabs/seal-go/pkg/keyserver"
	"github.com/mystenlabs/seal-go/pkg/logger"
	"github.com/mystenlabs/seal-go/pkg/sealerrors"
)

// Options configures a SealClient.
type Options struct {
	LedgerClient     LedgerClient
	ServerObjectIDs  [][32]byte
	VerifyKeyServers *bool // nil defaults to true
	TimeoutMs        int   // 0 defaults to config.DefaultTimeoutMs
	Logger           *zap.Logger
	HTTPClient       *http.Client // optional override, mainly for tests
}

// SealClient is the core encrypt/decrypt/fetchKeys engine. One instance
// owns a KeyServer list (lazily resolved and cached) and a process-lifetime
// KeyCache.
type SealClient struct {
	ledgerClient     LedgerClient
	serverObjectIDs  [][32]byte
	verifyKeyServers bool
	timeoutMs        int
	logger           *zap.Logger
	httpClient       *http.Client

	cache *cache.KeyCache

	resolveOnce sync.Once
	servers     []*keyserver.KeyServer
	resolveErr  error
}

// New constructs a SealClient. Key server resolution is deferred until the
// first operation that needs it.
func New(opts Options) (*SealClient, error) {
	if opts.LedgerClient == nil {
		return nil, sealerrors.User(sealerrors.CodeInvalidPackage, "sealclient: LedgerClient is required")
	}
	if len(opts.ServerObjectIDs) == 0 {
		return nil, sealerrors.User(sealerrors.CodeInvalidKeyServer, "sealclient: at least one server object id is required")
	}

	verify := true
	if opts.VerifyKeyServers != nil {
		verify = *opts.VerifyKeyServers
	}

	timeoutMs := opts.TimeoutMs
	if timeoutMs == 0 {
		timeoutMs = config.DefaultTimeoutMs
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &SealClient{
		ledgerClient:     opts.LedgerClient,
		serverObjectIDs:  opts.ServerObjectIDs,
		verifyKeyServers: verify,
		timeoutMs:        timeoutMs,
		logger:           log,
		httpClient:       httpClient,
		cache:            cache.New(),
	}, nil
}

// resolveKeyServers lazily resolves and verifies the configured key
// servers, sharing the single in-flight resolution (and its result) across
// concurrent callers.
func (c *SealClient) resolveKeyServers(ctx context.Context) ([]*keyserver.KeyServer, error) {
	c.resolveOnce.Do(func() {
		c.servers, c.resolveErr = c.doResolveKeyServers(ctx)
	})
	return c.servers, c.resolveErr
}

func (c *SealClient) doResolveKeyServers(ctx context.Context) ([]*keyserver.KeyServer, error) {
	servers := make([]*keyserver.KeyServer, 0, len(c.serverObjectIDs))
	for _, id := range c.serverObjectIDs {
		raw, err := c.ledgerClient.GetObject(ctx, id)
		if err != nil {
			return nil, sealerrors.UserWrap(sealerrors.CodeInvalidKeyServer, err, "sealclient: failed to retrieve key server %x", id)
		}
		server, err := DecodeKeyServerRecord(id, raw)
		if err != nil {
			return nil, sealerrors.UserWrap(sealerrors.CodeInvalidKeyServer, err, "sealclient: failed to decode key server %x", id)
		}
		if err := server.Validate(); err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return nil, sealerrors.User(sealerrors.CodeInvalidKeyServer, "sealclient: no key servers resolved")
	}

	if c.verifyKeyServers {
		for _, server := range servers {
			pop, err := c.fetchProofOfPossession(ctx, server)
			if err != nil {
				return nil, sealerrors.UserWrap(sealerrors.CodeInvalidKeyServer, err, "sealclient: failed to fetch proof of possession for %s", server.URL)
			}
			ok, err := keyserver.VerifyProofOfPossession(server.Pk, server.ObjectID, pop)
			if err != nil {
				return nil, sealerrors.UserWrap(sealerrors.CodeInvalidKeyServer, err, "sealclient: proof-of-possession check failed for %s", server.URL)
			}
			if !ok {
				return nil, sealerrors.User(sealerrors.CodeInvalidKeyServer, "sealclient: proof of possession does not verify for %s", server.URL)
			}
			c.logger.Sugar().Debugw("key server proof of possession verified", "server", server.URL, "objectId", server.ObjectID)
		}
	}

	c.logger.Sugar().Infow("resolved key servers", "count", len(servers))
	return servers, nil
}

func (c *SealClient) requestTimeout() time.Duration {
	return time.Duration(c.timeoutMs) * time.Millisecond
}
