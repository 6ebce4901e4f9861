package events

import (
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// ProcessAuthentication validates a token locally. There is no request or
// response exchange; Request and Response stay nil.
type ProcessAuthentication struct {
	pipeline.BaseContext
	TokenDetails
	Principal *protocol.Principal
}

func NewProcessAuthentication(tx *pipeline.Transaction, token, tokenType string) *ProcessAuthentication {
	return &ProcessAuthentication{
		BaseContext:  pipeline.NewBaseContext(tx),
		TokenDetails: TokenDetails{Token: token, TokenTypeHint: tokenType},
	}
}

func (*ProcessAuthentication) Kind() pipeline.Kind { return KindProcessAuthentication }
