package http

import (
	"context"

	"mufapcli/internal/query"
)

// QueryServiceInterface defines what the data handler needs from the
// query layer. Kept small so handler tests can substitute a stub.
type QueryServiceInterface interface {
	Query(ctx context.Context, reportID string, req query.Request) (*query.Response, error)
	Columns(ctx context.Context, reportID string) ([]string, error)
}
