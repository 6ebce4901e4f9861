package bearer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ggoodman/oidc-validation-go/protocol"
)

// ProtectedResourceMetadata is the RFC 9728 document describing how a
// resource server accepts access tokens.
type ProtectedResourceMetadata struct {
	Resource                          string   `json:"resource"`
	AuthorizationServers              []string `json:"authorization_servers,omitempty"`
	JwksURI                           string   `json:"jwks_uri,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported            []string `json:"bearer_methods_supported,omitempty"`
	ResourceSigningAlgValuesSupported []string `json:"resource_signing_alg_values_supported,omitempty"`
	ResourceName                      string   `json:"resource_name,omitempty"`
	ResourceDocumentation             string   `json:"resource_documentation,omitempty"`
	ResourcePolicyURI                 string   `json:"resource_policy_uri,omitempty"`
	ResourceTosURI                    string   `json:"resource_tos_uri,omitempty"`
}

// NewProtectedResourceMetadata describes resource as protected by the
// authorization server whose discovered configuration is cfg.
func NewProtectedResourceMetadata(resource string, cfg *protocol.Configuration, scopes ...string) ProtectedResourceMetadata {
	md := ProtectedResourceMetadata{
		Resource:               resource,
		ScopesSupported:        append([]string(nil), scopes...),
		BearerMethodsSupported: []string{"header"},
	}
	if cfg != nil {
		md.AuthorizationServers = []string{cfg.Issuer}
		if len(md.ScopesSupported) == 0 {
			md.ScopesSupported = append([]string(nil), cfg.ScopesSupported...)
		}
	}
	return md
}

// MetadataURL returns the well-known address of the metadata document for
// resource: the path of resource is appended to
// /.well-known/oauth-protected-resource.
func MetadataURL(resource string) (string, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("bearer: resource %q is not an absolute URL", resource)
	}
	md := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   "/.well-known/oauth-protected-resource" + strings.TrimSuffix(u.Path, "/"),
	}
	return md.String(), nil
}

// MetadataHandler serves md as JSON, with permissive CORS for browser based
// clients.
func MetadataHandler(md ProtectedResourceMetadata) http.Handler {
	body, err := json.Marshal(md)
	if err != nil {
		panic(err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		switch r.Method {
		case http.MethodOptions:
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet, http.MethodHead:
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		default:
			w.Header().Set("Allow", "GET, HEAD, OPTIONS")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
