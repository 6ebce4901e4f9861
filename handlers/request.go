package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

func attachRequestAddress(_ context.Context, ev events.PrepareRequest) error {
	bc := ev.Context()
	addr := ev.TargetAddress()
	if addr == nil {
		bc.Reject(protocol.ErrorInvalidRequest, "no endpoint address was provided", "")
		return nil
	}
	if bc.Request == nil {
		bc.Request = protocol.NewRequest()
	}
	u := *addr
	bc.Request.Address = &u
	if bc.Request.Method == "" {
		bc.Request.Method = http.MethodGet
	}
	return nil
}

func attachIntrospectionParameters(_ context.Context, ev *events.PrepareIntrospectionRequest) error {
	ev.Request.Method = http.MethodPost
	ev.Request.Parameters.Set(protocol.ParamToken, ev.Token)
	if ev.TokenTypeHint != "" {
		ev.Request.Parameters.Set(protocol.ParamTokenTypeHint, ev.TokenTypeHint)
	}
	return nil
}

func enforceSecureAddress(_ context.Context, ev events.ApplyRequest) error {
	bc := ev.Context()
	if bc.Request == nil || bc.Request.Address == nil {
		bc.Reject(protocol.ErrorInvalidRequest, "no endpoint address was provided", "")
		return nil
	}
	addr := bc.Request.Address
	switch strings.ToLower(addr.Scheme) {
	case "https":
		return nil
	case "http":
		if isLoopback(addr.Hostname()) {
			return nil
		}
	}
	bc.Reject(protocol.ErrorInvalidRequest, "endpoint address must use https: "+addr.Redacted(), "")
	return nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func attachClientCredentials(_ context.Context, ev *events.ApplyIntrospectionRequest) error {
	opts := ev.Options()
	ev.Request.Parameters.Set(protocol.ParamClientID, opts.ClientID)
	if opts.ClientSecret != "" {
		ev.Request.Parameters.Set(protocol.ParamClientSecret, opts.ClientSecret)
	}
	return nil
}
