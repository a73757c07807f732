package ports

import "github.com/muun/cosigner/internal/core/domain"

// Observer receives diagnostics. It must never influence control flow.
type Observer interface {
	ReportDivergence(d domain.Divergence)
	ReportError(operation string, err error)
}
