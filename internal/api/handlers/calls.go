package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acme/lead-call-relay/internal/domain"
	callsvc "github.com/acme/lead-call-relay/internal/service/call"
)

const dispatchedMessage = "Target acquired. Calling."

type triggerCallRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	ServiceInterest string `json:"service_interest"`
}

type debugCallRequest struct {
	Phone string `json:"phone"`
}

type callResponse struct {
	Status  string  `json:"status"`
	CallID  *string `json:"call_id"`
	To      string  `json:"to"`
	Message string  `json:"message"`
}

func (h *HandlerSet) triggerCall(ctx *fiber.Ctx) error {
	credential := ctx.Get(h.cfg.Auth.HeaderName)

	var req triggerCallRequest
	if err := ctx.BodyParser(&req); err != nil {
		return h.rejectBody(credential)
	}

	return h.dispatch(ctx, callsvc.DispatchInput{
		Source:     domain.SourceWebhook,
		Credential: credential,
		Lead: domain.LeadRequest{
			Name:            req.Name,
			Phone:           req.Phone,
			ServiceInterest: req.ServiceInterest,
		},
	})
}

// debugCall fires a call straight at a number with placeholder lead data.
func (h *HandlerSet) debugCall(ctx *fiber.Ctx) error {
	credential := ctx.Get(h.cfg.Auth.HeaderName)

	var req debugCallRequest
	if err := ctx.BodyParser(&req); err != nil {
		return h.rejectBody(credential)
	}

	return h.dispatch(ctx, callsvc.DispatchInput{
		Source:     domain.SourceDebug,
		Credential: credential,
		Lead: domain.LeadRequest{
			Name:            h.cfg.Lead.DebugName,
			Phone:           req.Phone,
			ServiceInterest: h.cfg.Lead.DebugService,
		},
	})
}

// funnelCall serves redirect-based integrations that can only pass a query
// string, so the credential travels as ?token=.
func (h *HandlerSet) funnelCall(ctx *fiber.Ctx) error {
	return h.dispatch(ctx, callsvc.DispatchInput{
		Source:     domain.SourceFunnel,
		Credential: ctx.Query("token"),
		Lead: domain.LeadRequest{
			Name:            ctx.Query("name", h.cfg.Lead.FunnelName),
			Phone:           ctx.Query("phone"),
			ServiceInterest: ctx.Query("service", h.cfg.Lead.DefaultService),
		},
	})
}

func (h *HandlerSet) dispatch(ctx *fiber.Ctx, input callsvc.DispatchInput) error {
	result, err := h.calls.Dispatch(ctx.UserContext(), input)
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(callResponse{
		Status:  string(result.Status),
		CallID:  result.CallID,
		To:      result.To.String(),
		Message: dispatchedMessage,
	})
}

// rejectBody keeps auth ahead of payload validation: a bad credential is
// reported as such even when the body is malformed.
func (h *HandlerSet) rejectBody(credential string) error {
	if err := h.calls.Authenticate(credential); err != nil {
		return translateError(err)
	}
	return fiber.NewError(http.StatusBadRequest, "invalid request body")
}
