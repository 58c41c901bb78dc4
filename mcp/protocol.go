package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/loopwork-ai/mcpd/jsonrpc"
)

// Supported MCP protocol versions
const (
	ProtocolVersion20241105 = "2024-11-05"
	ProtocolVersion20250326 = "2025-03-26"
	ProtocolVersion20250618 = "2025-06-18"
)

// LatestProtocolVersion is the version negotiated when a client does not
// ask for one
const LatestProtocolVersion = ProtocolVersion20250618

// ProtocolVersionHeader carries the negotiated protocol version on requests
// and responses
const ProtocolVersionHeader = "MCP-Protocol-Version"

var supportedProtocolVersions = map[string]bool{
	ProtocolVersion20241105: true,
	ProtocolVersion20250326: true,
	ProtocolVersion20250618: true,
}

// SupportedProtocolVersions returns the supported version strings in
// ascending order
func SupportedProtocolVersions() []string {
	versions := make([]string, 0, len(supportedProtocolVersions))
	for v := range supportedProtocolVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// NegotiateProtocolVersion determines the protocol version in effect for a
// request. An MCP-Protocol-Version header takes precedence over the server
// default; for initialize requests a protocolVersion param overrides the
// header-derived value. Unsupported versions fail with an InvalidParams
// error naming the supported set.
func NegotiateProtocolVersion(header string, request *jsonrpc.Request) (string, *jsonrpc.Error) {
	version := LatestProtocolVersion

	if header != "" {
		if !supportedProtocolVersions[header] {
			return "", unsupportedProtocolVersion(header)
		}
		version = header
	}

	if request != nil && request.Method == "initialize" {
		var params struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		if err := json.Unmarshal(request.Params, &params); err == nil && params.ProtocolVersion != "" {
			if !supportedProtocolVersions[params.ProtocolVersion] {
				return "", unsupportedProtocolVersion(params.ProtocolVersion)
			}
			version = params.ProtocolVersion
		}
	}

	return version, nil
}

func unsupportedProtocolVersion(version string) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.ErrInvalidParams,
		fmt.Sprintf("unsupported protocol version %q; supported versions: %s",
			version, strings.Join(SupportedProtocolVersions(), ", ")))
}

type protocolVersionKey struct{}

// WithProtocolVersion returns a context carrying the negotiated protocol
// version for one request
func WithProtocolVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, protocolVersionKey{}, version)
}

// ProtocolVersionFromContext returns the negotiated protocol version, or
// the latest supported version when none was negotiated
func ProtocolVersionFromContext(ctx context.Context) string {
	if version, ok := ctx.Value(protocolVersionKey{}).(string); ok && version != "" {
		return version
	}
	return LatestProtocolVersion
}
