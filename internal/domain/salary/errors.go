package salary

import (
	"errors"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
)

var (
	ErrComponentNotFound      = errors.New("salary component not found")
	ErrComponentCodeExists    = errors.New("salary component code already exists")
	ErrReservedComponentCode  = errors.New("component code is reserved")
	ErrInvalidFormula         = errors.New("invalid component formula")
	ErrStructureNotFound      = errors.New("salary structure not found")
	ErrNoActiveStructure      = errors.New("no salary structure effective for this period")
	ErrStructureOverlap       = errors.New("salary structure overlaps an existing structure")
	ErrUnknownComponent       = errors.New("structure references an unknown component")
	ErrBaseComponentMissing   = errors.New("base component is not part of the structure")
	ErrEmployeeNotFound       = employee.ErrEmployeeNotFound
	ErrConcurrentModification = errors.New("salary structure was modified concurrently")
)
