// Package services implements the business logic layer of the rounds
// dashboard. It provides a clean separation between HTTP handlers and the
// pipeline packages, ensuring that load-cycle rules are centralized and
// testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- DashboardService: runs load cycles and answers view queries
//	  against the current snapshot
//	- HealthService: provides system health checks and version info
//
// # Load Cycle Semantics
//
// A load cycle runs source, normalize, aggregate, build views, then
// atomically swaps the store's snapshot and broadcasts a snapshot:loaded
// event. Any pipeline error aborts the whole cycle: the previous
// snapshot stays in effect, a snapshot:reload_failed event carries the
// error code and the offending key, and no partial dataset is ever
// served.
//
// # Error Handling
//
// Query operations return sentinel errors that handlers transform:
//
//	- ErrNoSnapshot before the first successful load
//	- ErrFunctionNotFound, ErrKPINotFound, ErrRoundNotFound for
//	  lookups that miss
//
// Load cycles surface the pipeline's typed errors unchanged.
//
// # Testing
//
// Services are tested with fake sources and hubs:
//
//	svc, _ := NewDashboardService(fakeSource, store, kpiCfg, fakeHub, nil, logger)
//	snapshot, err := svc.Load(ctx)
package services
