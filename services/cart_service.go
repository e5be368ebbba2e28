// services/cart_service.go

package services

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/norun9/storefront-cart/cart"
	"github.com/norun9/storefront-cart/cartstore"
)

// CartService exposes the cart manager over HTTP.
type CartService struct {
	manager *cart.Manager
	store   cartstore.Store
	log     logrus.FieldLogger
}

// NewCartService wires the handlers to a manager and the store it persists into.
func NewCartService(manager *cart.Manager, store cartstore.Store, log logrus.FieldLogger) *CartService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CartService{manager: manager, store: store, log: log}
}

// Router builds the HTTP routes. Every request carries the manager in its context.
func (s *CartService) Router(serviceName string) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))
	r.Use(requestLogger(s.log))
	r.Use(s.withManager)

	r.HandleFunc("/cart/products", s.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/cart/products", s.addToCart).Methods(http.MethodPost)
	r.HandleFunc("/cart/products/{id}/increment", s.increment).Methods(http.MethodPost)
	r.HandleFunc("/cart/products/{id}/decrement", s.decrement).Methods(http.MethodPost)
	r.HandleFunc("/debug/keys", s.listKeys).Methods(http.MethodGet)
	return r
}

func (s *CartService) withManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(cart.WithManager(r.Context(), s.manager)))
	})
}

func (s *CartService) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cart.FromContext(r.Context()).Products())
}

func (s *CartService) addToCart(w http.ResponseWriter, r *http.Request) {
	var p cart.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product payload")
		return
	}
	if p.ID == "" {
		writeError(w, http.StatusBadRequest, "product id is required")
		return
	}
	writeJSON(w, http.StatusOK, cart.FromContext(r.Context()).AddToCart(r.Context(), p))
}

func (s *CartService) increment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, cart.FromContext(r.Context()).Increment(r.Context(), id))
}

func (s *CartService) decrement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, cart.FromContext(r.Context()).Decrement(r.Context(), id))
}

func (s *CartService) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListKeys(r.Context())
	if err != nil {
		s.log.WithError(err).Warn("failed to list store keys")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}
