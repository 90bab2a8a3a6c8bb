// Package lambdahttp runs an http.Handler behind an API Gateway HTTP API or
// a Lambda function URL.
package lambdahttp

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"
)

// HandlerFunc is the Lambda entry point returned by Handler.
type HandlerFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// Handler adapts h to API Gateway v2 payloads. Events that cannot be
// turned into a request get a 502 instead of failing the invocation.
func Handler(h http.Handler) HandlerFunc {
	adapter := httpadapter.NewV2(h)
	return func(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		res, err := adapter.ProxyWithContext(ctx, ev)
		if err != nil {
			log.Error().Err(err).Str("path", ev.RawPath).Msg("proxy lambda event")
			return events.APIGatewayV2HTTPResponse{
				StatusCode: http.StatusBadGateway,
				Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
				Body:       http.StatusText(http.StatusBadGateway),
			}, nil
		}
		return res, nil
	}
}
