package api

import (
	"errors"
	"net/http"

	"github.com/example/ec-stripe-checkout/internal/checkout"
	"github.com/example/ec-stripe-checkout/internal/domain/order"
)

// CheckoutHandlers drives the payment details step of checkout over HTTP.
// The step posts as a regular form; the token round-trips through the client
// between preview and confirm and is never stored server-side in between.
type CheckoutHandlers struct {
	payments *checkout.PaymentDetailsHandler
}

func NewCheckoutHandlers(payments *checkout.PaymentDetailsHandler) *CheckoutHandlers {
	return &CheckoutHandlers{payments: payments}
}

type stepResponse struct {
	Step        string              `json:"step"`
	FieldErrors map[string]string   `json:"field_errors,omitempty"`
	Form        *checkout.TokenForm `json:"form,omitempty"`
	Error       string              `json:"error,omitempty"`
	RedirectTo  string              `json:"redirect_to,omitempty"`
	Order       *order.Order        `json:"order,omitempty"`
}

// PaymentDetails renders the payment details step (GET) or processes a
// submission against it (POST).
func (h *CheckoutHandlers) PaymentDetails(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		res := h.payments.RenderPaymentStep()
		respondJSON(w, http.StatusOK, toStepResponse(res))
	case http.MethodPost:
		h.submit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := checkout.SubmitRequest{
		UserID: getUserID(r),
		Action: r.PostFormValue("action"),
		Form: checkout.TokenForm{
			Token: r.PostFormValue(checkout.TokenFormField),
		},
	}

	res, err := h.payments.HandleSubmit(r.Context(), req)
	if err != nil {
		var payErr *checkout.PaymentError
		if errors.As(err, &payErr) {
			// No order state exists at this point; send the customer back
			// to the payment step to retry.
			respondJSON(w, http.StatusPaymentRequired, stepResponse{
				Step:       string(checkout.StepPaymentDetails),
				Error:      payErr.Reason,
				RedirectTo: checkout.PaymentDetailsRedirect,
			})
			return
		}
		if errors.Is(err, order.ErrEmptyOrder) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch {
	case len(res.FieldErrors) > 0:
		respondJSON(w, http.StatusBadRequest, toStepResponse(res))
	case res.RedirectTo != "":
		w.Header().Set("Location", res.RedirectTo)
		respondJSON(w, http.StatusSeeOther, toStepResponse(res))
	case res.Step == checkout.StepComplete:
		respondJSON(w, http.StatusCreated, toStepResponse(res))
	default:
		respondJSON(w, http.StatusOK, toStepResponse(res))
	}
}

func toStepResponse(res *checkout.StepResult) stepResponse {
	return stepResponse{
		Step:        string(res.Step),
		FieldErrors: res.FieldErrors,
		Form:        res.Form,
		Error:       res.Error,
		RedirectTo:  res.RedirectTo,
		Order:       res.Order,
	}
}
