// Package service provides the business logic layer for the agent office.
//
// OfficeService is the interface every transport talks to. It resolves an
// office through a SessionManager, runs the request against the office
// engine under the office lock and persists the office afterwards.
// Layout documents and the furniture catalog come from a ConfigManager.
//
// Usage:
//
//	configMgr, _ := config.NewManager("layouts")
//	sessionMgr := session.NewManager(session.WithCatalog(configMgr.Catalog()))
//	svc := service.NewOfficeService(sessionMgr, configMgr)
//
//	info, err := svc.CreateOffice(ctx, "open-plan")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc.AddAgent(ctx, info.ID, 1, "")
//	svc.SetAgentTool(ctx, info.ID, 1, "Edit")
//	svc.SetAgentActive(ctx, info.ID, 1, true)
//
// Errors wrap ErrNotFound, ErrConflict or ErrInvalid so transports can map
// them to status codes with errors.Is. Engine errors such as
// layout.ErrPlacement are passed through wrapped.
package service
