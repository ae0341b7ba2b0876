package v1

import (
	"github.com/osit-platform/osit-backend/pkg/jwt"
	"github.com/osit-platform/osit-backend/pkg/service"
)

type HttpEndpoints struct {
	credentials *service.CredentialService
	assignments *service.AssignmentService
	events      *service.EventService
	tokens      *jwt.TokenIssuer
	// include the underlying cause in error responses
	exposeErrorDetail bool
}

func NewHTTPHandler(
	credentials *service.CredentialService,
	assignments *service.AssignmentService,
	events *service.EventService,
	tokens *jwt.TokenIssuer,
	exposeErrorDetail bool,
) *HttpEndpoints {
	return &HttpEndpoints{
		credentials:       credentials,
		assignments:       assignments,
		events:            events,
		tokens:            tokens,
		exposeErrorDetail: exposeErrorDetail,
	}
}
