package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/loopwork-ai/mcpd/jsonrpc"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB)
const MaxRequestBodySize = 1 << 20

const protectedResourcePath = "/.well-known/oauth-protected-resource"

// ProtectedResourceMetadata is the OAuth protected-resource metadata
// document served under /.well-known/oauth-protected-resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	ResourceDocumentation  string   `json:"resource_documentation,omitempty"`
}

// Transport binds a JSON-RPC handler to HTTP. Each request runs the same
// pipeline: origin gate, auth gate, envelope parsing, protocol-version
// negotiation, then dispatch.
type Transport struct {
	handler              jsonrpc.Handler
	auth                 BearerAuth
	allowedOrigins       map[string]bool
	authorizationServers []string
	resourceDocs         string
	publicURL            string
	logger               *slog.Logger
}

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithBearerToken sets the expected bearer token. An empty token leaves the
// transport misconfigured: every /mcp request fails with a 500.
func WithBearerToken(token string) TransportOption {
	return func(t *Transport) { t.auth.Token = token }
}

// WithRequiredScope sets the OAuth scope advertised in challenges and in
// the protected-resource metadata
func WithRequiredScope(scope string) TransportOption {
	return func(t *Transport) { t.auth.Scope = scope }
}

// WithAllowedOrigins restricts the Origin header to the given values; an
// empty list disables the restriction
func WithAllowedOrigins(origins []string) TransportOption {
	return func(t *Transport) {
		for _, origin := range origins {
			t.allowedOrigins[origin] = true
		}
	}
}

// WithAuthorizationServers sets the authorization server URLs listed in the
// protected-resource metadata
func WithAuthorizationServers(urls []string) TransportOption {
	return func(t *Transport) { t.authorizationServers = append(t.authorizationServers, urls...) }
}

// WithResourceDocumentation sets the resource_documentation URL in the
// protected-resource metadata
func WithResourceDocumentation(url string) TransportOption {
	return func(t *Transport) { t.resourceDocs = url }
}

// WithPublicURL sets the external base URL used when building metadata; if
// unset the base URL is derived from each request
func WithPublicURL(url string) TransportOption {
	return func(t *Transport) { t.publicURL = strings.TrimSuffix(url, "/") }
}

// WithTransportLogger sets the logger used by the transport
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = logger }
}

// NewHTTPTransport creates an HTTP transport for the given handler
func NewHTTPTransport(handler jsonrpc.Handler, opts ...TransportOption) *Transport {
	t := &Transport{
		handler:              handler,
		allowedOrigins:       make(map[string]bool),
		authorizationServers: []string{},
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterRoutes registers the transport's endpoints on the given mux
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc(protectedResourcePath, t.handleResourceMetadata)
	mux.HandleFunc(protectedResourcePath+"/mcp", t.handleResourceMetadata)
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (t *Transport) handleMCP(w http.ResponseWriter, r *http.Request) {
	logger := t.logger.With("request_id", uuid.NewString())

	if !t.originAllowed(r) {
		logger.Warn("origin rejected", "origin", r.Header.Get("Origin"))
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
		return
	}

	if authErr := t.auth.Authenticate(r); authErr != nil {
		logger.Warn("authentication failed", "status", authErr.status)
		t.writeAuthError(w, r, authErr)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		t.writeResponse(w, http.StatusBadRequest, LatestProtocolVersion,
			jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.ErrParse, "failed to read request body")))
		return
	}
	if len(body) > MaxRequestBodySize {
		t.writeResponse(w, http.StatusBadRequest, LatestProtocolVersion,
			jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.ErrInvalidRequest, "request body too large")))
		return
	}

	header := r.Header.Get(ProtocolVersionHeader)

	request, parseErr := jsonrpc.Parse(body)
	if parseErr != nil {
		var id json.RawMessage
		if request != nil {
			id = request.ID
		}
		t.writeResponse(w, http.StatusBadRequest, headerOrLatest(header),
			jsonrpc.NewErrorResponse(id, parseErr))
		return
	}

	// A response to a server-initiated request is accepted without a body.
	if request.IsClientResponse() {
		logger.Debug("acknowledged client response")
		t.writeAccepted(w, headerOrLatest(header))
		return
	}

	// Notifications never receive a result or error body, but any side
	// effect of the method still runs.
	if request.IsNotification() {
		version, negotiateErr := NegotiateProtocolVersion(header, request)
		if negotiateErr != nil {
			version = LatestProtocolVersion
		}
		t.handler.Handle(WithProtocolVersion(r.Context(), version), request)
		logger.Debug("accepted notification", "method", request.Method)
		t.writeAccepted(w, version)
		return
	}

	version, negotiateErr := NegotiateProtocolVersion(header, request)
	if negotiateErr != nil {
		t.writeResponse(w, http.StatusBadRequest, headerOrLatest(header),
			jsonrpc.NewErrorResponse(request.ID, negotiateErr))
		return
	}

	logger.Debug("mcp request", "method", request.Method, "protocol_version", version)

	response := t.handler.Handle(WithProtocolVersion(r.Context(), version), request)
	if response == nil {
		t.writeAccepted(w, version)
		return
	}
	t.writeResponse(w, http.StatusOK, version, response)
}

func (t *Transport) handleResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metadata := ProtectedResourceMetadata{
		Resource:               t.baseURL(r) + "/mcp",
		AuthorizationServers:   t.authorizationServers,
		BearerMethodsSupported: []string{"header"},
		ResourceDocumentation:  t.resourceDocs,
	}
	if t.auth.Scope != "" {
		metadata.ScopesSupported = []string{t.auth.Scope}
	}
	writeJSON(w, http.StatusOK, metadata)
}

// originAllowed applies the optional origin allow-list. An absent Origin
// header or an empty allow-list always passes.
func (t *Transport) originAllowed(r *http.Request) bool {
	if len(t.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return t.allowedOrigins[origin]
}

func (t *Transport) writeAuthError(w http.ResponseWriter, r *http.Request, authErr *authError) {
	if authErr.status == http.StatusUnauthorized || authErr.status == http.StatusForbidden {
		w.Header().Set("WWW-Authenticate", t.challenge(r, authErr.tag))
	}
	writeJSON(w, authErr.status, map[string]string{"error": authErr.detail})
}

// challenge builds the WWW-Authenticate value: realm, a pointer to the
// protected-resource metadata, the required scope when configured, and the
// RFC 6750 error tag when the request carried (bad) credentials.
func (t *Transport) challenge(r *http.Request, tag string) string {
	parts := []string{
		`Bearer realm="mcp"`,
		fmt.Sprintf("resource_metadata=%q", t.baseURL(r)+protectedResourcePath),
	}
	if t.auth.Scope != "" {
		parts = append(parts, fmt.Sprintf("scope=%q", t.auth.Scope))
	}
	if tag != "" {
		parts = append(parts, fmt.Sprintf("error=%q", tag))
	}
	return strings.Join(parts, ", ")
}

func (t *Transport) baseURL(r *http.Request) string {
	if t.publicURL != "" {
		return t.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func (t *Transport) writeResponse(w http.ResponseWriter, status int, version string, response *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ProtocolVersionHeader, version)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		t.logger.Error("encoding response", "error", err)
	}
}

func (t *Transport) writeAccepted(w http.ResponseWriter, version string) {
	w.Header().Set(ProtocolVersionHeader, version)
	w.WriteHeader(http.StatusAccepted)
}

// headerOrLatest echoes the header-advertised version when it is supported,
// falling back to the latest supported version
func headerOrLatest(header string) string {
	if supportedProtocolVersions[header] {
		return header
	}
	return LatestProtocolVersion
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encoding response body", "error", err)
	}
}
