// Package http implements HTTP request handlers for the TFC rounds dashboard.
// It provides a thin layer between HTTP transport and the dashboard service,
// following the clean architecture principle of keeping handlers focused solely
// on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No pipeline logic - loading, normalization and aggregation belong
//	   to the service and kpi packages
//	5. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Snapshot Store
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
// URL parameters that name domain values are parsed by Ctx middlewares and
// placed in the request context:
//
//	r.Route("/{function}", func(r chi.Router) {
//	    r.Use(h.FunctionCtx)
//	    r.Get("/", h.GetFunction)
//	})
//
// Each handler then follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Read parsed values from the context
//	    function := functionFrom(r.Context())
//
//	    // 2. Call service layer
//	    result, err := h.service.DoSomething(r.Context(), function)
//	    if err != nil {
//	        h.handleServiceError(w, r, err)
//	        return
//	    }
//
//	    // 3. Format and send response
//	    render.JSON(w, r, map[string]interface{}{"status": "success", "data": result})
//	}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details specification:
//
//	{
//	    "type": "function_not_found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Function 'Finance' not found in the loaded snapshot",
//	    "instance": "/api/functions/Finance"
//	}
//
// Load cycle failures keep the offending key in the problem extensions, so a
// failed reload can be traced back to a specific (function, kpi, round) cell.
//
// # Testing
//
// Handlers are tested using httptest:
//
//	- Mock service dependencies
//	- Test various HTTP scenarios
//	- Verify error responses
//	- Check middleware integration
package http
