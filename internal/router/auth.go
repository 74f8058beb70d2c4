package router

import "github.com/gin-gonic/gin"

// publicAuthRoutes are registered ahead of the authorization gate.
func (r *Router) publicAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/verifyUser", r.authHandler.VerifyUser)
		auth.POST("/resendVerificationCode", r.authHandler.ResendVerificationCode)
		auth.POST("/forgotPassword", r.authHandler.ForgotPassword)
		auth.POST("/resetPassword", r.authHandler.ResetPassword)
		auth.POST("/token", r.authHandler.Token)
		auth.GET("/oauth/callback", r.authHandler.OAuthCallback)
	}
}

func (r *Router) authRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.Use(r.authMw.RequireUser())
	{
		auth.POST("/newPassword", r.authHandler.NewPassword)
		auth.GET("/me", r.authHandler.Me)
	}
}
