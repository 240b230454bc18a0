package categories

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"agromart/rdx"
	"agromart/utils"

	"github.com/julienschmidt/httprouter"
)

const topLevelCacheKey = "categories:toplevel"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List serves the public storefront navigation: active top-level
// categories, cached briefly in Redis.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if rdx.Conn != nil {
		if cached, err := rdx.RdxGet(topLevelCacheKey); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	cats, err := h.svc.ListTopLevel(r.Context(), true)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	if rdx.Conn != nil {
		if payload, err := json.Marshal(cats); err == nil {
			if err := rdx.SetWithExpiry(topLevelCacheKey, string(payload), 5*time.Minute); err != nil {
				log.Printf("Category cache write failed: %v", err)
			}
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, cats)
}

func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cats, err := h.svc.ListAllAdmin(r.Context())
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cats)
}

func (h *Handler) SubCategories(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	cats, err := h.svc.ListSubCategories(r.Context(), ps.ByName("parentId"), true)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cats)
}

func (h *Handler) SubCategoriesAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	cats, err := h.svc.ListSubCategories(r.Context(), ps.ByName("parentId"), false)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cats)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	cat, err := h.svc.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cat)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Name == nil || *in.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	cat, err := h.svc.Create(r.Context(), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	h.invalidateCache()
	utils.RespondWithJSON(w, http.StatusCreated, cat)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	cat, err := h.svc.Update(r.Context(), ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	h.invalidateCache()
	utils.RespondWithJSON(w, http.StatusOK, cat)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.Delete(r.Context(), ps.ByName("id")); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	h.invalidateCache()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Category deleted"})
}

func (h *Handler) invalidateCache() {
	if rdx.Conn == nil {
		return
	}
	if _, err := rdx.RdxDel(topLevelCacheKey); err != nil {
		log.Printf("Category cache invalidation failed: %v", err)
	}
}
