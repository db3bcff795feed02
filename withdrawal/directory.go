package withdrawal

import (
	"context"
	"errors"
	"strings"
)

// ResolveEmployee looks code up in the directory.
//
// On a match the snapshot is built from the directory record and resolved is
// true. When the code is unknown the lookup is not fatal: the fallback's
// free-text name and department are kept with the given code, the employee
// ID is left nil and resolved is false. Any other directory error is
// returned.
func ResolveEmployee(ctx context.Context, dir Directory, code string, fallback EmployeeSnapshot) (snap EmployeeSnapshot, resolved bool, err error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return EmployeeSnapshot{}, false, invalid("employee_code", "is required")
	}

	emp, err := dir.FindEmployeeByCode(ctx, code)
	if err == nil {
		return emp.Snapshot(), true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return EmployeeSnapshot{}, false, err
	}

	return EmployeeSnapshot{
		Code:       code,
		Name:       fallback.Name,
		Department: fallback.Department,
	}, false, nil
}
