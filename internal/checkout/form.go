package checkout

// TokenFormField is the form field carrying the client-side payment token.
const TokenFormField = "stripeToken"

// Checkout form actions
const (
	ActionPlaceOrder = "place_order"
)

// TokenForm carries the payment token produced client-side by the
// processor's JS library. The raw card number never reaches this server.
// The token is echoed back on the preview step so the client can re-post
// it on confirm; it is not written to session or storage in between.
type TokenForm struct {
	Token string `json:"stripeToken"`
}

// Validate returns field errors keyed by form field name. The token is
// opaque to us; the only server-side check is presence.
func (f TokenForm) Validate() map[string]string {
	errs := make(map[string]string)
	if f.Token == "" {
		errs[TokenFormField] = "This field is required."
	}
	return errs
}
