package routes

import (
	"courtside/auth"
	"courtside/classes"
	"courtside/earnings"
	"courtside/middleware"
	"courtside/models"
	"courtside/profile"
	"courtside/ratelim"
	"courtside/wallet"
	"courtside/watch"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
}

func AddProfileRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/profile/:userid", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/profile", rl.Limit(middleware.Authenticate(profile.UpdateProfile)))
	router.PUT("/api/profile/:userid/role",
		middleware.Chain(rl.Limit, middleware.Authenticate, middleware.RequireRoles(models.RoleManager))(profile.UpdateRole))
}

func AddWalletRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *wallet.Handler) {
	router.GET("/api/wallet/balance",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.GetBalance))
	router.POST("/api/wallet/topup",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.TopUp))
	router.GET("/api/wallet/transactions",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.Transactions))
}

func AddClassRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *classes.Handler) {
	router.POST("/api/classes",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.CreateClass))
	router.GET("/api/classes/:date", middleware.Authenticate(h.GetClassesByDate))
	router.GET("/api/classes/:date/available", middleware.Authenticate(h.GetAvailableByDate))

	router.POST("/api/class/:classid/book",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.BookClass))
	router.POST("/api/class/:classid/finish",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.FinishClass))
	router.PUT("/api/class/:classid",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.EditClass))
	router.DELETE("/api/class/:classid",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.DeleteClass))
}

func AddEarningsRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *earnings.Handler) {
	router.GET("/api/earnings",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.GetEarnings))
	router.GET("/api/earnings/transactions",
		middleware.Chain(rl.Limit, middleware.Authenticate)(h.Transactions))
}

func AddWatchRoutes(router *httprouter.Router, hub *watch.Hub) {
	router.GET("/ws/classes", hub.HandleWS)
}
