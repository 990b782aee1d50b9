package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the CRM and workflow admin endpoints on router.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	l := router.Group("/leads")
	l.Get("/", h.GetLeads)
	l.Post("/", h.CreateLead)
	l.Get("/:id", h.GetLead)
	l.Put("/:id", h.UpdateLead)
	l.Delete("/:id", h.DeleteLead)
	l.Post("/:id/convert", h.ConvertLead)

	c := router.Group("/clients")
	c.Get("/", h.GetClients)
	c.Post("/", h.CreateClient)
	c.Get("/:id", h.GetClient)
	c.Put("/:id", h.UpdateClient)
	c.Delete("/:id", h.DeleteClient)

	a := router.Group("/activities")
	a.Get("/", h.GetActivities)
	a.Post("/", h.CreateActivity)
	a.Delete("/:id", h.DeleteActivity)

	w := router.Group("/workflows")
	w.Post("/scan-inactive", h.ScanInactive)
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
}
