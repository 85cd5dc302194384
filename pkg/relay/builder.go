// pkg/relay/builder.go
package relay

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/electrician/pkg/builder"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
	"go.uber.org/zap"
)

// OAuth holds client-credentials settings for the forward relay.
type OAuth struct {
	Issuer       string
	JWKSURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Leeway       time.Duration
}

func (o OAuth) Enabled() bool { return o.Issuer != "" && o.ClientID != "" && o.ClientSecret != "" }

// Config drives NewBuilderRelay. Zero values turn features off.
type Config struct {
	Targets       []string
	TLS           bool
	TLSCert       string
	TLSKey        string
	TLSCA         string
	TLSInsecure   bool // token fetch only; dev
	Snappy        bool
	AESKey        string // raw 32 bytes; enables AES-GCM
	StaticHeaders map[string]string
	OAuth         OAuth
}

// ConfigFromEnv reads ELECTRICIAN_* and OAUTH_* variables:
//
//	ELECTRICIAN_TARGET          = "host:port[,host2:port2]"
//	ELECTRICIAN_TLS_ENABLE      = "true"
//	ELECTRICIAN_TLS_CLIENT_CRT  = path (default keys/tls/client.crt)
//	ELECTRICIAN_TLS_CLIENT_KEY  = path (default keys/tls/client.key)
//	ELECTRICIAN_TLS_CA          = path (default keys/tls/ca.crt)
//	ELECTRICIAN_TLS_INSECURE    = "true"
//	ELECTRICIAN_COMPRESS        = "snappy"
//	ELECTRICIAN_ENCRYPT         = "aesgcm"
//	ELECTRICIAN_AES256_KEY_HEX  = 64 hex chars
//	ELECTRICIAN_STATIC_HEADERS  = "k=v,k2=v2"
//	OAUTH_ISSUER_BASE, OAUTH_JWKS_URL, OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET,
//	OAUTH_SCOPES ("s1,s2"), OAUTH_REFRESH_LEEWAY (default 20s)
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Targets:       splitCSV(envOr("ELECTRICIAN_TARGET", "")),
		TLS:           envTrue("ELECTRICIAN_TLS_ENABLE"),
		TLSCert:       envOr("ELECTRICIAN_TLS_CLIENT_CRT", "keys/tls/client.crt"),
		TLSKey:        envOr("ELECTRICIAN_TLS_CLIENT_KEY", "keys/tls/client.key"),
		TLSCA:         envOr("ELECTRICIAN_TLS_CA", "keys/tls/ca.crt"),
		TLSInsecure:   envTrue("ELECTRICIAN_TLS_INSECURE"),
		Snappy:        envOr("ELECTRICIAN_COMPRESS", "") == "snappy",
		StaticHeaders: parseKV(envOr("ELECTRICIAN_STATIC_HEADERS", "")),
		OAuth: OAuth{
			Issuer:       envOr("OAUTH_ISSUER_BASE", ""),
			JWKSURL:      envOr("OAUTH_JWKS_URL", ""),
			ClientID:     envOr("OAUTH_CLIENT_ID", ""),
			ClientSecret: envOr("OAUTH_CLIENT_SECRET", ""),
			Scopes:       splitCSV(envOr("OAUTH_SCOPES", "")),
			Leeway:       parseDur(envOr("OAUTH_REFRESH_LEEWAY", ""), 20*time.Second),
		},
	}
	if envOr("ELECTRICIAN_ENCRYPT", "") == "aesgcm" {
		raw, err := hex.DecodeString(envOr("ELECTRICIAN_AES256_KEY_HEX", ""))
		if err != nil || len(raw) != 32 {
			return Config{}, fmt.Errorf("ELECTRICIAN_AES256_KEY_HEX must be 64 hex chars (32 bytes): %v", err)
		}
		cfg.AESKey = string(raw)
	}
	return cfg, nil
}

// NewBuilderRelayFromEnv returns a Noop publisher when ELECTRICIAN_TARGET is
// unset, otherwise a started forward relay.
func NewBuilderRelayFromEnv(log *zap.Logger) (Publisher, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		log.Info("relay disabled; no ELECTRICIAN_TARGET")
		return &Noop{}, nil
	}
	return NewBuilderRelay(context.Background(), cfg, log)
}

// frame is what travels on the wire; the forward relay only carries bytes
// and static headers, so topic and type ride inside.
type frame struct {
	ID      string            `json:"id"`
	Topic   string            `json:"topic"`
	Type    string            `json:"type"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload json.RawMessage   `json:"payload"`
}

func encodeFrame(m Message) ([]byte, error) {
	return codec.JSON.Marshal(frame{
		ID:      uuid.NewString(),
		Topic:   m.Topic,
		Type:    m.Type,
		Headers: m.Headers,
		Payload: m.Body,
	})
}

type builderPublisher struct {
	submit func(context.Context, []byte) error
}

// NewBuilderRelay starts an electrician Wire[[]byte] feeding a ForwardRelay
// to cfg.Targets. Long-lived components run on ctx, not on publish contexts.
func NewBuilderRelay(ctx context.Context, cfg Config, log *zap.Logger) (Publisher, error) {
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("relay: no targets")
	}
	elog := builder.NewLogger(builder.LoggerWithDevelopment(true))
	wire := builder.NewWire[[]byte](ctx, builder.WireWithLogger[[]byte](elog))

	perf := builder.NewPerformanceOptions(cfg.Snappy, builder.COMPRESS_SNAPPY)
	sec := builder.NewSecurityOptions(cfg.AESKey != "", builder.ENCRYPTION_AES_GCM)
	tlsCfg := builder.NewTlsClientConfig(cfg.TLS, cfg.TLSCert, cfg.TLSKey, cfg.TLSCA, tls.VersionTLS13, tls.VersionTLS13)

	var startRelay func(context.Context) error
	if o := cfg.OAuth; o.Enabled() {
		authOpts := builder.NewForwardRelayAuthenticationOptionsOAuth2(nil)
		if o.JWKSURL != "" {
			authOpts = builder.NewForwardRelayAuthenticationOptionsOAuth2(
				builder.NewForwardRelayOAuth2JWTOptions(o.Issuer, o.JWKSURL, []string{}, o.Scopes, 300),
			)
		}
		tokenHTTP := &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS13,
				InsecureSkipVerify: cfg.TLSInsecure,
			}},
		}
		tokens := builder.NewForwardRelayRefreshingClientCredentialsSource(
			o.Issuer, o.ClientID, o.ClientSecret, o.Scopes, o.Leeway, tokenHTTP,
		)
		fr := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](elog),
			builder.ForwardRelayWithTarget[[]byte](cfg.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, cfg.AESKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](cfg.StaticHeaders),
			builder.ForwardRelayWithAuthenticationOptions[[]byte](authOpts),
			builder.ForwardRelayWithOAuthBearer[[]byte](tokens),
			builder.ForwardRelayWithInput(wire),
		)
		startRelay = fr.Start
	} else {
		fr := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](elog),
			builder.ForwardRelayWithTarget[[]byte](cfg.Targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, cfg.AESKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](cfg.StaticHeaders),
			builder.ForwardRelayWithInput(wire),
		)
		startRelay = fr.Start
	}

	if err := wire.Start(ctx); err != nil {
		return nil, fmt.Errorf("relay wire start: %w", err)
	}
	if err := startRelay(ctx); err != nil {
		return nil, fmt.Errorf("relay start: %w", err)
	}
	log.Info("relay started",
		zap.Strings("targets", cfg.Targets),
		zap.Bool("tls", cfg.TLS),
		zap.Bool("snappy", cfg.Snappy),
		zap.Bool("aesgcm", cfg.AESKey != ""),
		zap.Bool("oauth", cfg.OAuth.Enabled()),
	)
	return &builderPublisher{submit: func(ctx context.Context, b []byte) error { return wire.Submit(ctx, b) }}, nil
}

func (p *builderPublisher) Publish(ctx context.Context, m Message) error {
	if m.Topic == "" {
		return ErrMissingTopic
	}
	b, err := encodeFrame(m)
	if err != nil {
		return fmt.Errorf("relay encode: %w", err)
	}
	return p.submit(ctx, b)
}
