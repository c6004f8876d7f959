// Package http implements HTTP request handlers for the report web
// service. It provides a thin layer between HTTP transport and the
// query/download logic, keeping handlers focused solely on HTTP
// concerns.
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Parse and validate request
//	    req, err := parseRequest(r)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
//	        return
//	    }
//
//	    // 2. Call service layer
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil {
//	        h.handleQueryError(w, r, req.Report, err)
//	        return
//	    }
//
//	    // 3. Format and send response
//	    render.JSON(w, r, result)
//	}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details specification:
//
//	{
//	    "type": "/errors/report/not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Report data not found; run the processor first",
//	    "instance": "/api/data/pkrv"
//	}
package http
