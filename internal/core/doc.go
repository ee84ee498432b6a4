// Package core holds the dashboard's application logic, independent of any
// transport. Web handlers and tests use it without modification.
//
// # Architecture
//
// [Service] owns one [grid.Grid] per page registered in the catalog. Grids
// are not safe for concurrent use, so every call goes through the page's
// mutex. A page is built from its definition: fixed columns, sort options,
// summary field names and seed rows, which may come from a [SeedSource].
//
//	svc, err := core.NewService(ctx, opts)
//	view, err := svc.UpdateView("products", core.ViewUpdate{Search: &q})
//	_, err = svc.AddColumn(ctx, "products", "Notes")
//
// # Change Events
//
// Every change to a page's rows, column visibility or banner is published to
// subscribers of [Service.Subscribe]. Sends never block; a slow subscriber
// misses updates instead of stalling the grid.
//
// # Activity Log
//
// Mutations are recorded in a bounded in-memory log with the request's IP
// address, user agent and request ID. [Service.StartAuditPruner] removes
// expired entries in the background.
//
// # Errors
//
// Grid errors are plain sentinels matched with errors.Is. [MapError] turns
// any error into a [UserMessage] with a stable code for the UI.
package core
