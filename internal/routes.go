package internal

import (
	"net/http"

	"dbd/internal/controllers"
	"dbd/internal/providers"
	"dbd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/posts", http.HandlerFunc(apiController.ListPosts))
	routers.Post("/posts", http.HandlerFunc(apiController.CreatePost))
	routers.Patch("/posts", http.HandlerFunc(apiController.EditPost))
	routers.Delete("/posts", http.HandlerFunc(apiController.DeletePost))
	routers.Post("/comments", http.HandlerFunc(apiController.CreateComment))
	routers.Get("/channels", http.HandlerFunc(apiController.ListChannels))
	routers.Post("/channels", http.HandlerFunc(apiController.CreateChannel))
	routers.Delete("/channels", http.HandlerFunc(apiController.DeleteChannel))
	routers.Get("/settings", http.HandlerFunc(apiController.GetSettings))
	routers.Patch("/settings", http.HandlerFunc(apiController.PatchSettings))
	return routers
}
