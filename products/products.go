package products

import (
	"encoding/json"
	"net/http"

	"agromart/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/products?category=&subCategory=&search=.
// The filters are mutually exclusive; search wins, then subCategory,
// then category fan-out, then the plain active listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	search := q.Get("search")
	subCategory := q.Get("subCategory")
	category := q.Get("category")

	var err error
	var prods any

	switch {
	case search != "":
		prods, err = h.svc.Search(r.Context(), search)
	case subCategory != "":
		prods, err = h.svc.ListBySubCategory(r.Context(), subCategory, true)
	case category != "":
		prods, err = h.svc.ListByCategory(r.Context(), category)
	default:
		prods, err = h.svc.ListAll(r.Context(), true)
	}
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prods)
}

func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	prods, err := h.svc.ListAll(r.Context(), false)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prods)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.svc.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Name == nil || *in.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if in.Price == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Price is required")
		return
	}
	if in.SubCategory == nil || *in.SubCategory == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "SubCategory is required")
		return
	}

	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	p, err := h.svc.Update(r.Context(), ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.Delete(r.Context(), ps.ByName("id")); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product deleted"})
}
