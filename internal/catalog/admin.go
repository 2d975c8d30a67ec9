package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"BuildStore/pkg/kit"
)

const publishTimeout = 3 * time.Second

// AdminRoutes is meant to be mounted at /admin/products behind the admin
// gate.
func (s *Server) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(kit.MethodNotAllowed)

	r.Get("/", s.adminList)
	r.Post("/", s.create)
	r.Put("/{id}", s.update)
	r.Delete("/{id}", s.delete)

	return r
}

type productReq struct {
	Name     string     `json:"name"`
	Price    flexString `json:"price"`
	Category string     `json:"category"`
	Image    string     `json:"image"`
}

func (s *Server) adminList(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.logError("list products failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, Filter(products, r.URL.Query().Get("q")))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	p := normalize(Product{
		ID:           "p_" + uuid.NewString(),
		Name:         req.Name,
		Price:        string(req.Price),
		Category:     req.Category,
		Image:        req.Image,
		DateAdded:    now,
		LastModified: now,
	})
	if err := validate(p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.Store.Create(r.Context(), p); err != nil {
		s.writeStoreError(w, r, "create product failed", p.ID, err)
		return
	}

	s.publish(r.Context(), EventProductCreated, p.ID, &p)
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	cur, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get product failed", id, err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	image := req.Image
	if image == "" {
		image = cur.Image
	}

	p := normalize(Product{
		ID:           cur.ID,
		Name:         req.Name,
		Price:        string(req.Price),
		Category:     req.Category,
		Image:        image,
		DateAdded:    cur.DateAdded,
		LastModified: time.Now().UTC(),
	})
	if err := validate(p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.Store.Update(r.Context(), p); err != nil {
		s.writeStoreError(w, r, "update product failed", id, err)
		return
	}

	s.publish(r.Context(), EventProductUpdated, p.ID, &p)
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, "delete product failed", id, err)
		return
	}

	s.publish(r.Context(), EventProductDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeProduct(w http.ResponseWriter, r *http.Request) (productReq, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "body too large", nil)
			return productReq{}, false
		}
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return productReq{}, false
	}
	return req, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	case errors.Is(err, ErrDuplicateID):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), map[string]any{"id": id})
	case errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.logError(msg, err, zap.String("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// publish is best effort: the write already happened.
func (s *Server) publish(ctx context.Context, typ, id string, p *Product) {
	if s.Events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := Event{Type: typ, ProductID: id, Product: p, OccurredAt: time.Now().UTC()}
	if err := s.Events.Publish(ctx, id, ev); err != nil && s.Log != nil {
		s.Log.Warn("publish product event failed", zap.String("type", typ), zap.String("id", id), zap.Error(err))
	}
}
