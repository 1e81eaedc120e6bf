package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/taskledger/internal/api/v1"
)

func registerTaskRoutes(api huma.API, svc v1.TaskService) {
	v1.RegisterTaskRoutes(api, svc)
}

func registerAuditRoutes(api huma.API, query v1.AuditQuery) {
	v1.RegisterAuditRoutes(api, query)
}
