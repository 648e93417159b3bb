package service

import (
	"github.com/citytwin/backend/internal/domain"
)

// RunRepository is re-exported from domain for convenience
type RunRepository = domain.RunRepository
