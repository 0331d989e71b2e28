package checkout

import (
	"context"
	"fmt"

	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
)

// PaymentArgsKey is the payment-arguments key the token travels under in a
// submission.
const PaymentArgsKey = "stripe"

// PaymentDetailsRedirect is where a tampered confirm submission is sent back to.
const PaymentDetailsRedirect = "/checkout/payment-details"

// PaymentError signals that the payment leg of a checkout failed before any
// external call: most commonly a submission that reached payment handling
// without a token. The surrounding submission flow converts it to a
// user-facing retry prompt.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return "payment error: " + e.Reason
}

// Submission is the payload handed to the order-submission pipeline once the
// payment details step is confirmed.
type Submission struct {
	UserID      string
	PaymentArgs map[string]string
}

// Submitter is the generic order-submission pipeline the payment step
// delegates to on confirmation.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (*order.Order, error)
}

// Step names for checkout responses
type Step string

const (
	StepPaymentDetails Step = "payment-details"
	StepPreview        Step = "preview"
	StepComplete       Step = "complete"
)

// StepResult tells the API layer what to render after a submit.
type StepResult struct {
	Step        Step
	FieldErrors map[string]string
	// Form echoes the validated token form on the preview step. It is
	// round-tripped through the client as a hidden field and deliberately
	// never written to session or storage before final confirmation.
	Form *TokenForm
	// Error is a generic user-facing message; it stays unspecific on
	// purpose so a probing client learns nothing about validation rules.
	Error      string
	RedirectTo string
	Order      *order.Order
}

// SubmitRequest is one POST against the payment details step.
type SubmitRequest struct {
	UserID string
	Action string
	Form   TokenForm
}

// PaymentDetailsHandler drives the payment details step of checkout. It
// composes with the generic pipeline instead of overriding it: the pipeline
// is invoked explicitly on confirmation and calls back into HandlePayment
// for the payment leg.
type PaymentDetailsHandler struct {
	submitter Submitter
}

func NewPaymentDetailsHandler(submitter Submitter) *PaymentDetailsHandler {
	return &PaymentDetailsHandler{submitter: submitter}
}

// SetSubmitter late-binds the submission pipeline. The pipeline and the
// payment step reference each other, so one side is wired after construction.
func (h *PaymentDetailsHandler) SetSubmitter(submitter Submitter) {
	h.submitter = submitter
}

// RenderPaymentStep returns the payment details step with an empty token
// form. It reads nothing and writes nothing.
func (h *PaymentDetailsHandler) RenderPaymentStep() *StepResult {
	return &StepResult{
		Step: StepPaymentDetails,
		Form: &TokenForm{},
	}
}

// HandleSubmit processes a POST against the payment details step, branching
// on the confirm flag.
func (h *PaymentDetailsHandler) HandleSubmit(ctx context.Context, req SubmitRequest) (*StepResult, error) {
	if req.Action == ActionPlaceOrder {
		return h.placeOrder(ctx, req)
	}

	// Not confirming yet: validate the token form and show the preview.
	if errs := req.Form.Validate(); len(errs) > 0 {
		return &StepResult{
			Step:        StepPaymentDetails,
			FieldErrors: errs,
		}, nil
	}

	// Preview with the completed token form carried opaquely. The token is
	// not written anywhere server-side at this point.
	form := req.Form
	return &StepResult{
		Step: StepPreview,
		Form: &form,
	}, nil
}

// placeOrder re-validates the token form server-side before submitting.
// A failure here means the hidden form was tampered with between preview
// and confirm, so the message stays generic.
func (h *PaymentDetailsHandler) placeOrder(ctx context.Context, req SubmitRequest) (*StepResult, error) {
	if errs := req.Form.Validate(); len(errs) > 0 {
		return &StepResult{
			Step:       StepPaymentDetails,
			Error:      "Invalid submission",
			RedirectTo: PaymentDetailsRedirect,
		}, nil
	}

	sub := h.BuildSubmission(req.UserID, req.Form)
	o, err := h.submitter.Submit(ctx, sub)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		Step:  StepComplete,
		Order: o,
	}, nil
}

// BuildSubmission extends the base submission with the validated token
// under the payment-arguments key.
func (h *PaymentDetailsHandler) BuildSubmission(userID string, form TokenForm) Submission {
	sub := Submission{
		UserID:      userID,
		PaymentArgs: make(map[string]string),
	}
	if len(form.Validate()) == 0 {
		sub.PaymentArgs[PaymentArgsKey] = form.Token
	}
	return sub
}

// Authorization is the payment-source registration HandlePayment returns for
// the pipeline to record on the order.
type Authorization struct {
	SourceType      payment.SourceType
	AmountAllocated int64
	Reference       string
}

// HandlePayment performs the payment leg of an order submission. No charge
// is executed here; the processor-side hold already exists for the token, so
// the result is an authorization record for the full tax-inclusive total.
func (h *PaymentDetailsHandler) HandlePayment(orderNumber string, totalInclTax int64, paymentArgs map[string]string) (*Authorization, error) {
	token, ok := paymentArgs[PaymentArgsKey]
	if !ok || token == "" {
		return nil, &PaymentError{Reason: fmt.Sprintf("no token found for order %s", orderNumber)}
	}

	return &Authorization{
		SourceType:      payment.SourceTypeStripe,
		AmountAllocated: totalInclTax,
		Reference:       token,
	}, nil
}
