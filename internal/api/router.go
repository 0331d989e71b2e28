package api

import (
	"net/http"
	"strings"
)

type RouterDeps struct {
	Handlers            *Handlers
	AuthHandlers        *AuthHandlers
	CheckoutHandlers    *CheckoutHandlers
	FulfillmentHandlers *FulfillmentHandlers
	AuthMiddleware      func(http.Handler) http.Handler
	OptionalAuth        func(http.Handler) http.Handler
}

func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.AuthHandlers.Register(w, r)
	})

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.AuthHandlers.Login(w, r)
	})

	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.AuthHandlers.Logout(w, r)
	})

	mux.Handle("/auth/me", deps.AuthMiddleware(http.HandlerFunc(deps.AuthHandlers.Me)))

	// Products
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.Handlers.GetProducts(w, r)
		case http.MethodPost:
			deps.Handlers.CreateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.Handlers.GetProduct(w, r)
		case http.MethodPut:
			deps.Handlers.UpdateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Cart
	mux.Handle("/cart", deps.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.Handlers.GetCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/cart/items", deps.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.Handlers.AddToCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/cart/items/", deps.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			deps.Handlers.RemoveFromCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Checkout: the payment details step handles both its GET render and
	// the form POST (preview and place_order actions). Checkout requires a
	// logged-in user; orders must belong to a real account.
	mux.Handle("/checkout/payment-details", deps.AuthMiddleware(http.HandlerFunc(deps.CheckoutHandlers.PaymentDetails)))

	// Orders
	mux.Handle("/orders", deps.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.Handlers.GetOrders(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/orders/", deps.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/shipping-events") && r.Method == http.MethodPost:
			deps.FulfillmentHandlers.CreateShippingEvent(w, r)
		case r.Method == http.MethodGet:
			deps.Handlers.GetOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
