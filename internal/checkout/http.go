package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"BuildStore/internal/cart"
	"BuildStore/pkg/kit"
)

type Server struct {
	Cart     *cart.Server
	ShopName string
	Phone    string
}

type checkoutResp struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Register adds the read-only basket views to a cart router.
func (s *Server) Register(r chi.Router) {
	r.Get("/summary", s.handleSummary)
	r.Get("/checkout", s.handleCheckout)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, Summarize(s.Cart.Load(r)))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	c := s.Cart.Load(r)
	if len(c) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
		return
	}

	msg := Message(s.ShopName, c)
	kit.WriteJSON(w, http.StatusOK, checkoutResp{Message: msg, URL: Link(s.Phone, msg)})
}
