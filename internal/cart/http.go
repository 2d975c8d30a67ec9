package cart

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BuildStore/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Jar     CookieJar
	Log     *zap.Logger
	Metrics *Metrics
}

// Routes is meant to be mounted at /cart. The returned router can be
// extended with further read-only cart views.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(kit.MethodNotAllowed)

	r.Get("/", s.handleRead)
	r.Post("/add", s.handleAdd)
	r.Post("/update", s.handleUpdate)
	r.Post("/clear", s.handleClear)

	return r
}

type cartResp struct {
	Cart Cart `json:"cart"`
}

type addReq struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Quantity *int   `json:"quantity"`
}

type updateReq struct {
	ID       ID   `json:"id"`
	Quantity *int `json:"quantity"`
}

// Load is the cart carried by r, with decode failures counted and logged.
func (s *Server) Load(r *http.Request) Cart {
	c, err := s.Jar.Load(r)
	if err != nil {
		s.Metrics.malformed()
		if s.Log != nil {
			s.Log.Debug("cart cookie ignored", zap.Error(err))
		}
	}
	return c
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	c := s.Load(r)
	s.Metrics.observe("read", "ok")
	kit.WriteJSON(w, http.StatusOK, cartResp{Cart: c})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := decodeBody(w, r, &req); err != nil {
		s.Metrics.observe("add", "bad_request")
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	qty := 0
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	c, err := s.Load(r).Add(Item{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Image:    req.Image,
	}, qty)
	if err != nil {
		s.writeOpError(w, r, "add", err, "Missing item id")
		return
	}

	s.save(w, r, "add", c)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	if err := decodeBody(w, r, &req); err != nil {
		s.Metrics.observe("update", "bad_request")
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if req.ID == "" {
		s.writeOpError(w, r, "update", ErrMissingIdentifier, "Missing id")
		return
	}
	if req.Quantity == nil {
		s.writeOpError(w, r, "update", ErrInvalidQuantity, "")
		return
	}

	c, err := s.Load(r).UpdateQuantity(req.ID, *req.Quantity)
	if err != nil {
		s.writeOpError(w, r, "update", err, "Missing id")
		return
	}

	s.save(w, r, "update", c)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Jar.Save(w, s.Load(r).Clear()); err != nil {
		s.writeSaveError(w, r, "clear", err)
		return
	}
	s.Metrics.observe("clear", "ok")
	kit.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, op string, c Cart) {
	if err := s.Jar.Save(w, c); err != nil {
		s.writeSaveError(w, r, op, err)
		return
	}
	s.Metrics.observe(op, "ok")
	kit.WriteJSON(w, http.StatusOK, cartResp{Cart: c})
}

func (s *Server) writeOpError(w http.ResponseWriter, r *http.Request, op string, err error, missingMsg string) {
	s.Metrics.observe(op, "bad_request")
	switch {
	case errors.Is(err, ErrMissingIdentifier):
		kit.WriteError(w, r, http.StatusBadRequest, missingMsg, nil)
	case errors.Is(err, ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid quantity", nil)
	default:
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	}
}

func (s *Server) writeSaveError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.Metrics.observe(op, "error")
	if s.Log != nil {
		s.Log.Error("cart save failed", zap.String("op", op), zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
