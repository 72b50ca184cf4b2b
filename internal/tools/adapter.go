package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bayline/internal/domain"
	"bayline/internal/metrics"
	"bayline/internal/models"
	"bayline/internal/service"

	"github.com/rs/zerolog"
)

// Tool names as the voice runtime invokes them.
const (
	ToolCheckAvailability = "checkAvailability"
	ToolBookAppointment   = "bookAppointment"
	ToolLogCall           = "logCall"
)

// ErrUnknownOperation marks a dispatch to a tool name outside the contract.
var ErrUnknownOperation = errors.New("unknown operation")

// Adapter binds the conversational tool names to the booking service and
// shapes every outcome, including panics, into a JSON envelope. The calling
// transport can only forward structured results back into the conversation,
// so nothing may propagate as a fault past Dispatch.
type Adapter struct {
	svc    domain.BookingService
	logger *zerolog.Logger
}

func NewAdapter(svc domain.BookingService, logger *zerolog.Logger) *Adapter {
	return &Adapter{svc: svc, logger: logger}
}

type checkAvailabilityArgs struct {
	DateString  string `json:"dateString"`
	ServiceType string `json:"serviceType"`
}

type bookAppointmentArgs struct {
	BayID           string `json:"bayId"`
	DateString      string `json:"dateString"`
	ServiceType     string `json:"serviceType"`
	CustomerName    string `json:"customerName"`
	CustomerContact string `json:"customerContact"`
	VehicleMake     string `json:"vehicleMake"`
	VehicleModel    string `json:"vehicleModel"`
	VehicleYear     string `json:"vehicleYear"`
}

type logCallArgs struct {
	Summary string `json:"summary"`
}

// availabilityEnvelope is the checkAvailability result as the voice runtime
// consumes it. Field names are part of the external contract and stay
// camelCase regardless of what the web API serializes.
type availabilityEnvelope struct {
	Available bool   `json:"available"`
	BayID     string `json:"bayId,omitempty"`
	Message   string `json:"message"`
}

type bookEnvelope struct {
	Status        string `json:"status"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Message       string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// Dispatch routes one tool invocation by name. The returned bytes are always
// a valid JSON envelope; errors and panics become {"error": message}.
func (a *Adapter) Dispatch(ctx context.Context, name string, args json.RawMessage) (out json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Str("tool", name).Interface("panic", r).Msg("tool call panicked")
			metrics.IncToolCall(name, "error")
			out = marshalEnvelope(errorEnvelope{Error: fmt.Sprintf("tool execution failed: %v", r)})
		}
	}()

	var envelope interface{}
	switch name {
	case ToolCheckAvailability:
		envelope = a.checkAvailability(ctx, args)
	case ToolBookAppointment:
		envelope = a.bookAppointment(ctx, args)
	case ToolLogCall:
		envelope = a.logCall(ctx, args)
	default:
		metrics.IncToolCall(name, "error")
		return marshalEnvelope(errorEnvelope{Error: fmt.Sprintf("%v: %s", ErrUnknownOperation, name)})
	}

	if _, failed := envelope.(errorEnvelope); failed {
		metrics.IncToolCall(name, "error")
	} else {
		metrics.IncToolCall(name, "ok")
	}
	return marshalEnvelope(envelope)
}

func (a *Adapter) checkAvailability(ctx context.Context, args json.RawMessage) interface{} {
	var in checkAvailabilityArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope{Error: fmt.Sprintf("bad checkAvailability arguments: %v", err)}
	}

	verdict, err := a.svc.CheckAvailability(ctx, in.DateString, in.ServiceType)
	if err != nil {
		// An unparseable date must read as a request problem, not as the
		// shop being full, so the model asks the caller to repeat it.
		if errors.Is(err, service.ErrInvalidInput) {
			return errorEnvelope{Error: fmt.Sprintf("invalid date format provided: %q, please provide ISO 8601", in.DateString)}
		}
		return errorEnvelope{Error: err.Error()}
	}
	return availabilityEnvelope{
		Available: verdict.Available,
		BayID:     verdict.BayID,
		Message:   verdict.Message,
	}
}

func (a *Adapter) bookAppointment(ctx context.Context, args json.RawMessage) interface{} {
	var in bookAppointmentArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope{Error: fmt.Sprintf("bad bookAppointment arguments: %v", err)}
	}

	appt, err := a.svc.Book(ctx, models.BookingRequest{
		BayID:        in.BayID,
		Start:        in.DateString,
		ServiceName:  in.ServiceType,
		CustomerName: in.CustomerName,
		Contact:      splitContact(in.CustomerContact),
		Vehicle: models.Vehicle{
			Year:  in.VehicleYear,
			Make:  in.VehicleMake,
			Model: in.VehicleModel,
		},
	})
	switch {
	case err == nil:
		return bookEnvelope{Status: models.BookingConfirmed, AppointmentID: appt.ID}
	case errors.Is(err, service.ErrSlotUnavailable):
		return bookEnvelope{Status: models.BookingFailed, Message: "Slot is no longer available."}
	case errors.Is(err, service.ErrInvalidInput):
		return errorEnvelope{Error: err.Error()}
	default:
		return bookEnvelope{Status: models.BookingFailed, Message: "Booking could not be saved. Please try again."}
	}
}

func (a *Adapter) logCall(ctx context.Context, args json.RawMessage) interface{} {
	var in logCallArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope{Error: fmt.Sprintf("bad logCall arguments: %v", err)}
	}

	if _, err := a.svc.LogCall(ctx, in.Summary); err != nil {
		return errorEnvelope{Error: err.Error()}
	}
	return map[string]string{"status": "logged"}
}

// splitContact classifies the single free-form contact field the voice
// runtime collects into phone or email.
func splitContact(contact string) models.Contact {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return models.Contact{}
	}
	if strings.Contains(contact, "@") {
		return models.Contact{Email: contact}
	}
	return models.Contact{Phone: contact}
}

func marshalEnvelope(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"error":"internal encoding failure"}`)
	}
	return raw
}
