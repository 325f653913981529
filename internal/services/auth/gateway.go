package auth

import (
	"context"
	"errors"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/services/oidc"
	"github.com/benvon/hotsauce-api/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/hotsauce-api/internal/services/auth"

// Flow names used for logging and metrics
const (
	FlowLogin  = "login"
	FlowSignup = "signup"
)

// IdentityVerifier validates a provider identity token
type IdentityVerifier interface {
	Validate(ctx context.Context, token string) (*models.Claims, error)
}

// SessionIssuer mints a session token for a user
type SessionIssuer interface {
	Issue(userID int64) (string, models.Session, error)
}

// AttemptRecorder counts login and signup outcomes
type AttemptRecorder interface {
	RecordAuthAttempt(flow, outcome string)
}

// GatewayConfig configures the login and signup flows
type GatewayConfig struct {
	Variant models.UserVariant
	// RequireNonce rejects identity tokens that carry no nonce
	RequireNonce   bool
	Recorder       AttemptRecorder
	TracerProvider trace.TracerProvider
}

// Result is a successfully established session
type Result struct {
	UserID  int64
	Token   string
	Session models.Session
	Created bool
}

// Gateway turns a verified identity into a first-party session
type Gateway struct {
	verifier  IdentityVerifier
	directory *UserDirectory
	nonces    *NonceLedger
	sessions  SessionIssuer
	cfg       GatewayConfig
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewGateway wires the auth flows together
func NewGateway(verifier IdentityVerifier, directory *UserDirectory, nonces *NonceLedger, sessions SessionIssuer, cfg GatewayConfig, logger *zap.Logger) *Gateway {
	if !cfg.Variant.IsValid() {
		cfg.Variant = models.UserVariantUsername
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		verifier:  verifier,
		directory: directory,
		nonces:    nonces,
		sessions:  sessions,
		cfg:       cfg,
		tracer:    cfg.TracerProvider.Tracer(tracerName),
		logger:    logger,
	}
}

// Variant reports how users are provisioned
func (g *Gateway) Variant() models.UserVariant {
	return g.cfg.Variant
}

// Login starts a session for an existing account. In the profile variant the
// account is created on first login.
func (g *Gateway) Login(ctx context.Context, identityToken string) (result *Result, err error) {
	ctx, span := g.tracer.Start(ctx, "auth.login")
	defer func() { g.finish(span, FlowLogin, result, err) }()

	claims, err := g.verifier.Validate(ctx, identityToken)
	if err != nil {
		return nil, err
	}
	if err := g.requireNonce(claims.Nonce); err != nil {
		return nil, err
	}

	var (
		userID  int64
		created bool
	)
	if g.cfg.Variant == models.UserVariantProfile {
		userID, created, err = g.directory.ResolveOrCreate(ctx, claims.Subject, claims.Profile())
	} else {
		userID, err = g.directory.Resolve(ctx, claims.Subject)
	}
	if err != nil {
		return nil, err
	}

	return g.establish(ctx, userID, claims.Nonce, created)
}

// Signup creates a username account for the token's subject and starts a session
func (g *Gateway) Signup(ctx context.Context, identityToken, username string) (result *Result, err error) {
	ctx, span := g.tracer.Start(ctx, "auth.signup")
	defer func() { g.finish(span, FlowSignup, result, err) }()

	if g.cfg.Variant != models.UserVariantUsername {
		return nil, ErrSignupDisabled
	}

	claims, err := g.verifier.Validate(ctx, identityToken)
	if err != nil {
		return nil, err
	}
	if err := g.requireNonce(claims.Nonce); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}

	userID, created, err := g.directory.Create(ctx, claims.Subject, username)
	if err != nil {
		return nil, err
	}

	return g.establish(ctx, userID, claims.Nonce, created)
}

func (g *Gateway) establish(ctx context.Context, userID int64, nonce string, created bool) (*Result, error) {
	if err := g.checkNonce(ctx, userID, nonce); err != nil {
		return nil, err
	}

	token, sess, err := g.sessions.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &Result{UserID: userID, Token: token, Session: sess, Created: created}, nil
}

// requireNonce rejects a nonce-less token before any account is created
func (g *Gateway) requireNonce(nonce string) error {
	if nonce == "" && g.cfg.RequireNonce {
		return ErrReusedNonce
	}
	return nil
}

func (g *Gateway) checkNonce(ctx context.Context, userID int64, nonce string) error {
	if err := g.requireNonce(nonce); err != nil || nonce == "" {
		return err
	}

	fresh, err := g.nonces.Claim(ctx, userID, nonce)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrReusedNonce
	}
	return nil
}

func (g *Gateway) finish(span trace.Span, flow string, result *Result, err error) {
	defer span.End()

	outcome := Outcome(err)
	if g.cfg.Recorder != nil {
		g.cfg.Recorder.RecordAuthAttempt(flow, outcome)
	}
	span.SetAttributes(attribute.String("auth.outcome", outcome))

	if err != nil {
		span.SetStatus(codes.Error, outcome)
		fields := []zap.Field{zap.String("flow", flow), zap.String("outcome", outcome)}
		if outcome == "internal" {
			g.logger.Error("auth_failed", append(fields, zap.Error(err))...)
		} else {
			g.logger.Info("auth_rejected", append(fields, zap.Error(err))...)
		}
		return
	}

	span.SetAttributes(
		attribute.Int64("auth.user_id", result.UserID),
		attribute.Bool("auth.created", result.Created),
	)
	g.logger.Info("auth_succeeded",
		zap.String("flow", flow),
		zap.Int64("user_id", result.UserID),
		zap.Bool("created", result.Created))
}

// Outcome names the result of an auth attempt for metrics and logs
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := oidc.KindOf(err); ok {
		return kind.String()
	}
	switch {
	case errors.Is(err, ErrNoSuchAccount):
		return "no_such_account"
	case errors.Is(err, ErrReusedNonce):
		return "reused_nonce"
	case errors.Is(err, ErrSignupDisabled):
		return "signup_disabled"
	case errors.Is(err, validation.ErrAlreadyTaken):
		return "username_taken"
	case validation.IsUsernameError(err):
		return "username_invalid"
	default:
		return "internal"
	}
}
