package router

import (
	"github.com/ahlanjobb/api/internal/model"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(api *gin.RouterGroup) {
	users := api.Group("/user")
	{
		// Staff manage the accounts they own
		users.POST("", r.authMw.RequireStaff(), r.userHandler.Create)
		users.GET("/list/users", r.authMw.RequireStaff(), r.userHandler.List)
		users.PATCH("/updateUser/:id", r.authMw.RequireStaff(), r.userHandler.UpdateUser)
		users.DELETE("/:id", r.authMw.RequireStaff(), r.userHandler.Delete)
		users.PATCH("/toggleDisable/:id",
			r.authMw.RequireRoles(model.RoleAdmin, model.RoleCompanyManager),
			r.userHandler.ToggleDisable,
		)

		// Any signed in user
		users.PATCH("", r.authMw.RequireUser(), r.userHandler.UpdateSelf)
		users.GET("/:id", r.authMw.RequireUser(), r.userHandler.GetByID)
	}
}
