package routes

import (
	"net/http"

	"agromart/auth"
	"agromart/categories"
	"agromart/db"
	"agromart/filemgr"
	"agromart/middleware"
	"agromart/orders"
	"agromart/products"
	"agromart/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/register", rl.Limit(auth.Register))
}

// The router rejects a static segment alongside a wildcard in the same
// position, so the reserved words (admin, subcategories, stats) are
// dispatched inside the wildcard routes.
func AddCategoryRoutes(router *httprouter.Router, h *categories.Handler) {
	router.GET("/api/categories", middleware.OptionalAuth(h.List))
	router.GET("/api/categories/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") == "admin" {
			middleware.AdminOnly(h.ListAdmin)(w, r, ps)
			return
		}
		h.Get(w, r, ps)
	})
	router.GET("/api/categories/:id/:parentId", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") != "subcategories" {
			http.NotFound(w, r)
			return
		}
		h.SubCategories(w, r, ps)
	})
	router.GET("/api/categories/:id/:parentId/:scope", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") != "subcategories" || ps.ByName("scope") != "admin" {
			http.NotFound(w, r)
			return
		}
		middleware.AdminOnly(h.SubCategoriesAdmin)(w, r, ps)
	})
	router.POST("/api/categories", middleware.AdminOnly(h.Create))
	router.PATCH("/api/categories/:id", middleware.AdminOnly(h.Update))
	router.DELETE("/api/categories/:id", middleware.AdminOnly(h.Delete))
}

func AddProductRoutes(router *httprouter.Router, h *products.Handler) {
	router.GET("/api/products", middleware.OptionalAuth(h.List))
	router.GET("/api/products/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") == "admin" {
			middleware.AdminOnly(h.ListAdmin)(w, r, ps)
			return
		}
		h.Get(w, r, ps)
	})
	router.POST("/api/products", middleware.AdminOnly(h.Create))
	router.PATCH("/api/products/:id", middleware.AdminOnly(h.Update))
	router.DELETE("/api/products/:id", middleware.AdminOnly(h.Delete))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler) {
	router.POST("/api/orders", middleware.Authenticate(h.Create))
	router.GET("/api/orders", middleware.Authenticate(h.List))
	router.GET("/api/orders/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") == "stats" {
			middleware.AdminOnly(h.Stats)(w, r, ps)
			return
		}
		middleware.Authenticate(h.Get)(w, r, ps)
	})
	router.GET("/api/orders/:id/invoice", middleware.Authenticate(h.Invoice))
	router.PATCH("/api/orders/:id", middleware.Authenticate(h.Update))
	router.DELETE("/api/orders/:id", middleware.Authenticate(h.Delete))
}

func AddUploadRoutes(router *httprouter.Router) {
	router.POST("/api/upload/image", filemgr.UploadImage)
	router.POST("/api/upload/base64", filemgr.UploadBase64)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/*filepath", http.Dir(filemgr.UploadDir()))
}

// RoutesWrapper wires the services to their collections and registers
// everything on the router.
func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter) {
	catSvc := categories.NewService(categories.NewMongoStore(db.CategoryCollection))
	prodSvc := products.NewService(
		products.NewMongoStore(db.ProductCollection),
		products.NewSubCategoryIndex(db.CategoryCollection),
	)
	orderSvc := orders.NewService(
		orders.NewMongoStore(db.OrderCollection),
		prodSvc,
		orders.NewUserIndex(db.UserCollection),
	)

	AddAuthRoutes(router, rl)
	AddCategoryRoutes(router, categories.NewHandler(catSvc))
	AddProductRoutes(router, products.NewHandler(prodSvc))
	AddOrderRoutes(router, orders.NewHandler(orderSvc))
	AddUploadRoutes(router)
	AddStaticRoutes(router)
}
