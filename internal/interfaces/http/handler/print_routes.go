package handler

import (
	"github.com/erp/printd/internal/interfaces/http/router"
)

// PrintRoutes creates the route groups for discovery and printing
func PrintRoutes(handler *PrintHandler) []*router.DomainGroup {
	printers := router.NewDomainGroup("printers", "/printers")
	printers.GET("", handler.ListPrinters)

	printGroup := router.NewDomainGroup("print", "/print")
	printGroup.POST("/test", handler.PrintTest)
	printGroup.POST("/ticket", handler.PrintTicket)
	printGroup.POST("/comanda", handler.PrintComanda)

	return []*router.DomainGroup{printers, printGroup}
}

// SystemRoutes creates the route group for the liveness endpoint
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/health")
	group.GET("", handler.Health)
	return group
}
