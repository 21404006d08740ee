// Package http implements the HTTP handlers of the featurepipe web service.
// Handlers parse requests, call the services layer and format responses;
// they hold no transformation logic.
//
// # Endpoints
//
//	GET  /api/v1/stages           list stage ids, names and default output files
//	POST /api/v1/stages/{stage}   CSV body in, augmented CSV out
//	POST /api/v1/pipeline         JSON {stages, mode, delimiter, csv}, per-stage report and CSV outputs
//	POST /api/v1/profile          CSV body in, per-column profile out
//	GET  /api/health[/ready|/live]
//	GET  /api/version
//
// Stage endpoints accept ?delimiter=; (or ?delimiter=tab) for non-comma input.
//
// # Error Handling
//
// Every error is written as errors.ErrorResponse:
//
//	{"success": false, "error": {"status_code": 422, "error_code": "MISSING_COLUMN",
//	 "message": "...", "details": {"stage": "derive", "column": "salary"}}}
//
// Table errors (missing column, type mismatch, date parse, empty column) are
// 422. Malformed CSV and failed validation are 400, unknown stages 404 and
// oversized bodies 413.
package http
