package domain

// Source identifies the inbound entry point that produced a dispatch.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourceDebug   Source = "debug"
	SourceFunnel  Source = "funnel"
)

// CallResultStatus tags the outcome returned to the caller.
type CallResultStatus string

const (
	CallResultSuccess CallResultStatus = "success"
	CallResultError   CallResultStatus = "error"
)

// Dynamic variable keys forwarded to the voice agent.
const (
	VarCustomerName = "customer_name"
	VarService      = "service"
)

// LeadRequest is the caller-supplied lead.
type LeadRequest struct {
	Name            string
	Phone           string
	ServiceInterest string
}

// PhoneNumber is an E.164-shaped value: a leading + followed only by digits.
type PhoneNumber string

func (p PhoneNumber) String() string {
	return string(p)
}

// CallCommand is the outbound instruction sent to the calling API.
type CallCommand struct {
	FromNumber       string
	ToNumber         PhoneNumber
	AgentID          string
	DynamicVariables map[string]string
}

// NewCallCommand assembles a command for an already normalized target.
func NewCallCommand(from string, to PhoneNumber, agentID string, lead LeadRequest) CallCommand {
	return CallCommand{
		FromNumber: from,
		ToNumber:   to,
		AgentID:    agentID,
		DynamicVariables: map[string]string{
			VarCustomerName: lead.Name,
			VarService:      lead.ServiceInterest,
		},
	}
}

// CallResult is the successful outcome of a dispatch. Failures are reported
// as errors classified by pkg/errors.
type CallResult struct {
	Status CallResultStatus
	CallID *string
	To     PhoneNumber
}
