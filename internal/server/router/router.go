// Package router turns one raw client message into exactly one response,
// consulting the session registry, credential store and content store.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/svgkeeper/internal/server/protocol"
	"github.com/dmitrijs2005/svgkeeper/internal/server/services"
)

// Extra client-visible messages for limits enforced by the stores.
const (
	MsgCredentialsTooLong = "Username or password too long"
	MsgNameTooLong        = "File name too long"
)

const DefaultTimeout = 10 * time.Second

type CredentialStore interface {
	CreateAccount(ctx context.Context, username, password string) (services.AccountStatus, error)
	Verify(ctx context.Context, username, password string) (bool, error)
}

type ContentStore interface {
	Save(ctx context.Context, owner, name string, content []byte) error
	Get(ctx context.Context, owner, name string) ([]byte, error)
	List(ctx context.Context, owner string) ([]string, error)
}

type SessionRegistry interface {
	Issue(username string) (string, error)
	Resolve(token string) (string, bool)
	Revoke(token string)
}

type Option func(*Router)

// WithTimeout bounds the storage work of a single request.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// Router is stateless apart from its collaborators and safe for concurrent
// use by any number of connections.
type Router struct {
	users    CredentialStore
	docs     ContentStore
	sessions SessionRegistry
	metrics  *metrics.Metrics
	log      logging.Logger
	timeout  time.Duration
}

func New(users CredentialStore, docs ContentStore, sessions SessionRegistry, log logging.Logger, opts ...Option) *Router {
	r := &Router{
		users:    users,
		docs:     docs,
		sessions: sessions,
		log:      log.With("module", "router"),
		timeout:  DefaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle decodes raw and dispatches it. Storage work runs detached from
// ctx cancellation, bounded by the router timeout: a client that
// disconnects mid-request does not abort a write already started.
func (r *Router) Handle(ctx context.Context, raw []byte) protocol.Response {
	start := time.Now()

	req, err := protocol.Decode(raw)
	if err != nil && req == nil {
		msg := protocol.MsgParseError
		if errors.Is(err, protocol.ErrInvalidAction) {
			msg = protocol.MsgInvalidAction
		}
		r.log.Debug(ctx, "protocol error", "error", err)
		r.metrics.ObserveRequest("", metrics.OutcomeProtocolError, time.Since(start))
		return protocol.Fail("", msg)
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	resp := r.dispatch(sctx, req, err)

	outcome := metrics.OutcomeOK
	switch {
	case resp.Error == protocol.MsgInternal:
		outcome = metrics.OutcomeInternalError
	case resp.Failed():
		outcome = metrics.OutcomeRejected
	}
	r.metrics.ObserveRequest(string(req.Action()), outcome, time.Since(start))
	r.log.Debug(ctx, "request handled", "action", req.Action(), "outcome", outcome, "duration", time.Since(start))

	return resp
}

// dispatch runs the handler for req. verr is the shape validation result;
// session-bearing requests check the session before reporting it.
func (r *Router) dispatch(ctx context.Context, req protocol.Request, verr error) protocol.Response {
	switch q := req.(type) {
	case protocol.CreateUserRequest:
		if verr != nil {
			return protocol.Fail(q.Action(), protocol.MsgCredentialsRequired)
		}
		return r.createUser(ctx, q)
	case protocol.LoginRequest:
		if verr != nil {
			return protocol.Fail(q.Action(), protocol.MsgCredentialsRequired)
		}
		return r.login(ctx, q)
	case protocol.LogoutRequest:
		if verr != nil {
			return protocol.Fail(q.Action(), protocol.MsgInvalidSession)
		}
		r.sessions.Revoke(q.SessionToken)
		return protocol.LoggedOut()
	case protocol.GetFileListRequest:
		return r.fileList(ctx, q)
	case protocol.GetFileByNameRequest:
		return r.fileByName(ctx, q, verr)
	case protocol.SaveSVGRequest:
		return r.saveSVG(ctx, q, verr)
	}
	return protocol.Fail("", protocol.MsgInvalidAction)
}

func (r *Router) createUser(ctx context.Context, q protocol.CreateUserRequest) protocol.Response {
	status, err := r.users.CreateAccount(ctx, q.Username, q.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return protocol.Fail(q.Action(), MsgCredentialsTooLong)
		}
		return protocol.Fail(q.Action(), protocol.MsgInternal)
	}
	if status == services.AccountAlreadyExists {
		return protocol.Fail(q.Action(), protocol.MsgUserExists)
	}
	return r.issue(ctx, q.Action(), q.Username)
}

func (r *Router) login(ctx context.Context, q protocol.LoginRequest) protocol.Response {
	ok, err := r.users.Verify(ctx, q.Username, q.Password)
	if err != nil {
		return protocol.Fail(q.Action(), protocol.MsgInternal)
	}
	if !ok {
		r.log.Info(ctx, "login failed", "username", q.Username)
		return protocol.Fail(q.Action(), protocol.MsgInvalidCredentials)
	}
	return r.issue(ctx, q.Action(), q.Username)
}

func (r *Router) issue(ctx context.Context, a protocol.Action, username string) protocol.Response {
	token, err := r.sessions.Issue(username)
	if err != nil {
		r.log.Error(ctx, "error issuing session", "username", username, "error", err)
		return protocol.Fail(a, protocol.MsgInternal)
	}
	r.log.Info(ctx, "session issued", "username", username)
	return protocol.SessionCreated(a, username, token)
}

func (r *Router) owner(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	return r.sessions.Resolve(token)
}

func (r *Router) fileList(ctx context.Context, q protocol.GetFileListRequest) protocol.Response {
	owner, ok := r.owner(q.SessionToken)
	if !ok {
		return protocol.Fail(q.Action(), protocol.MsgUnauthorized)
	}
	names, err := r.docs.List(ctx, owner)
	if err != nil {
		return protocol.Fail(q.Action(), protocol.MsgInternal)
	}
	return protocol.FileList(names)
}

func (r *Router) fileByName(ctx context.Context, q protocol.GetFileByNameRequest, verr error) protocol.Response {
	owner, ok := r.owner(q.SessionToken)
	if !ok {
		return protocol.Fail(q.Action(), protocol.MsgUnauthorized)
	}
	if verr != nil {
		return protocol.Fail(q.Action(), protocol.MsgNameRequired)
	}
	content, err := r.docs.Get(ctx, owner, q.Name)
	switch {
	case err == nil:
		return protocol.File(q.Name, content)
	case errors.Is(err, common.ErrorNotFound):
		return protocol.Fail(q.Action(), protocol.MsgFileNotFound)
	case errors.Is(err, common.ErrorValidation):
		return protocol.Fail(q.Action(), protocol.MsgNameRequired)
	}
	return protocol.Fail(q.Action(), protocol.MsgInternal)
}

func (r *Router) saveSVG(ctx context.Context, q protocol.SaveSVGRequest, verr error) protocol.Response {
	owner, ok := r.owner(q.SessionToken)
	if !ok {
		return protocol.Fail(q.Action(), protocol.MsgUnauthorized)
	}
	if verr != nil {
		return protocol.Fail(q.Action(), protocol.MsgNameContentRequired)
	}
	err := r.docs.Save(ctx, owner, q.Name, []byte(q.Content))
	switch {
	case err == nil:
		r.log.Info(ctx, "document saved", "username", owner, "name", q.Name)
		return protocol.Saved(q.Name)
	case errors.Is(err, common.ErrorValidation):
		return protocol.Fail(q.Action(), MsgNameTooLong)
	}
	return protocol.Fail(q.Action(), protocol.MsgInternal)
}
